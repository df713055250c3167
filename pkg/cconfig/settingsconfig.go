// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cconfig reads the server settings file (settings.json in the
// config dir) and watches it for changes.
package cconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wavetermdev/copad/pkg/copadbase"
	"github.com/wavetermdev/copad/pkg/page"
	"github.com/wavetermdev/copad/pkg/util/utilfn"
)

const SettingsFile = "settings.json"

type SettingsType struct {
	WebListenAddr   string `json:"web:listenaddr,omitempty"`
	WebWSListenAddr string `json:"web:wslistenaddr,omitempty"`

	PageRerunDelayMs int64 `json:"page:rerundelayms,omitempty"`

	EditorLabel       string `json:"editor:label,omitempty"`
	EditorLanguage    string `json:"editor:language,omitempty"`
	EditorInitialCode string `json:"editor:initialcode,omitempty"`
	EditorWidgetKey   string `json:"editor:widgetkey,omitempty"`
}

type FullConfigType struct {
	Settings   SettingsType `json:"settings"`
	ConfigErrs []string     `json:"configerrs,omitempty"`
}

const DefaultListenAddr = "127.0.0.1:8370"
const DefaultWSListenAddr = "127.0.0.1:8371"

func getSettingsDefaults() SettingsType {
	return SettingsType{
		WebListenAddr:     DefaultListenAddr,
		WebWSListenAddr:   DefaultWSListenAddr,
		PageRerunDelayMs:  page.DefaultRerunDelay.Milliseconds(),
		EditorLabel:       page.DefaultLabel,
		EditorLanguage:    page.DefaultLanguage,
		EditorInitialCode: page.DefaultInitialCode,
		EditorWidgetKey:   page.DefaultWidgetKey,
	}
}

// ControllerOpts maps the editor/page settings onto page controller options.
func (s SettingsType) ControllerOpts() page.ControllerOpts {
	return page.ControllerOpts{
		Label:       s.EditorLabel,
		Language:    s.EditorLanguage,
		InitialCode: s.EditorInitialCode,
		WidgetKey:   s.EditorWidgetKey,
		RerunDelay:  time.Duration(s.PageRerunDelayMs) * time.Millisecond,
	}
}

// ReadFullConfig loads settings.json from the config dir, overlaying it on
// the defaults.  A missing file is not an error; a malformed one is reported
// in ConfigErrs and the defaults stand.
func ReadFullConfig() FullConfigType {
	return readFullConfigFromDir(copadbase.GetConfigDir())
}

func readFullConfigFromDir(configDir string) FullConfigType {
	var fullConfig FullConfigType
	fullConfig.Settings = getSettingsDefaults()
	settingsPath := filepath.Join(configDir, SettingsFile)
	barr, err := os.ReadFile(settingsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fullConfig.ConfigErrs = append(fullConfig.ConfigErrs, fmt.Sprintf("reading %s: %v", SettingsFile, err))
		}
		return fullConfig
	}
	var settingsMap map[string]any
	err = json.Unmarshal(barr, &settingsMap)
	if err != nil {
		fullConfig.ConfigErrs = append(fullConfig.ConfigErrs, fmt.Sprintf("parsing %s: %v", SettingsFile, err))
		return fullConfig
	}
	err = utilfn.DoMapStructure(&fullConfig.Settings, settingsMap)
	if err != nil {
		fullConfig.ConfigErrs = append(fullConfig.ConfigErrs, fmt.Sprintf("decoding %s: %v", SettingsFile, err))
		fullConfig.Settings = getSettingsDefaults()
	}
	return fullConfig
}
