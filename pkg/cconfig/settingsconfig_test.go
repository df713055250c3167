// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wavetermdev/copad/pkg/page"
)

func TestSettingsDefaults(t *testing.T) {
	fullConfig := readFullConfigFromDir(t.TempDir())
	if len(fullConfig.ConfigErrs) != 0 {
		t.Fatalf("missing settings file must not be an error: %v", fullConfig.ConfigErrs)
	}
	settings := fullConfig.Settings
	if settings.WebListenAddr != DefaultListenAddr {
		t.Errorf("listen addr default mismatch: %q", settings.WebListenAddr)
	}
	if settings.EditorLanguage != page.DefaultLanguage {
		t.Errorf("language default mismatch: %q", settings.EditorLanguage)
	}
	if settings.PageRerunDelayMs != page.DefaultRerunDelay.Milliseconds() {
		t.Errorf("rerun delay default mismatch: %d", settings.PageRerunDelayMs)
	}
}

func TestSettingsOverlay(t *testing.T) {
	dir := t.TempDir()
	settingsJson := `{"editor:language": "go", "page:rerundelayms": 250}`
	err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settingsJson), 0644)
	if err != nil {
		t.Fatalf("error writing settings file: %v", err)
	}
	fullConfig := readFullConfigFromDir(dir)
	if len(fullConfig.ConfigErrs) != 0 {
		t.Fatalf("unexpected config errors: %v", fullConfig.ConfigErrs)
	}
	settings := fullConfig.Settings
	if settings.EditorLanguage != "go" {
		t.Errorf("override not applied: %q", settings.EditorLanguage)
	}
	if settings.PageRerunDelayMs != 250 {
		t.Errorf("rerun delay override not applied: %d", settings.PageRerunDelayMs)
	}
	// untouched keys keep their defaults
	if settings.EditorLabel != page.DefaultLabel {
		t.Errorf("label default lost: %q", settings.EditorLabel)
	}
}

func TestSettingsMalformed(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte("{not json"), 0644)
	if err != nil {
		t.Fatalf("error writing settings file: %v", err)
	}
	fullConfig := readFullConfigFromDir(dir)
	if len(fullConfig.ConfigErrs) == 0 {
		t.Fatalf("malformed settings must be reported")
	}
	if fullConfig.Settings.WebListenAddr != DefaultListenAddr {
		t.Fatalf("defaults must stand on parse error")
	}
}

func TestControllerOpts(t *testing.T) {
	settings := getSettingsDefaults()
	settings.PageRerunDelayMs = 250
	settings.EditorLanguage = "go"
	opts := settings.ControllerOpts()
	if opts.RerunDelay != 250*time.Millisecond {
		t.Errorf("rerun delay mapping mismatch: %v", opts.RerunDelay)
	}
	if opts.Language != "go" {
		t.Errorf("language mapping mismatch: %q", opts.Language)
	}
	if opts.WidgetKey != page.DefaultWidgetKey {
		t.Errorf("widget key mapping mismatch: %q", opts.WidgetKey)
	}
}
