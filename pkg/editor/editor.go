// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package editor defines the contract with the copilot editor widget that
// runs in the browser page.  The widget itself (rendering, suggestion UI,
// cursor tracking) is frontend code; the server only passes it configuration
// and reads back observation records.
package editor

import (
	"context"
)

// EditorConfig is the configuration passed to the widget on each invocation.
// Key is the widget's stable identity token.  It must stay constant across
// reruns of the same logical widget instance, otherwise the frontend treats
// each rerun as a brand new editor and discards its internal state.
type EditorConfig struct {
	Label       string `json:"label"`
	Language    string `json:"language"`
	InitialCode string `json:"initialcode"`
	Suggestion  string `json:"suggestion"`
	Key         string `json:"key"`
}

// EditorResult is one observation reported by the widget.  UUID changes
// whenever the widget produces a new observation; BeforeCursor is the text
// content preceding the cursor at observation time.
type EditorResult struct {
	UUID         string `json:"uuid"`
	BeforeCursor string `json:"beforecursor"`
}

// Invoker is the widget invocation: push config to the widget, read back the
// latest observation (nil when the widget has nothing new to report).
type Invoker interface {
	Invoke(ctx context.Context, config EditorConfig) (*EditorResult, error)
}
