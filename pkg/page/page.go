// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package page implements the demo page's controller: one pass of
// render -> read widget -> compare -> (maybe) mutate-and-rerun.
package page

import (
	"context"
	"time"

	"github.com/wavetermdev/copad/pkg/editor"
)

// session state keys
const (
	KeySuggestion = "suggestion"
	KeyUUID       = "uuid"
)

const SuggestionPrefix = "i have suggestion about this code: `"

const (
	DefaultLabel       = "foo"
	DefaultLanguage    = "python"
	DefaultInitialCode = `print("hello world")`
	DefaultWidgetKey   = "fixed"
	DefaultRerunDelay  = 1 * time.Second
)

type Action int

const (
	ActionDone Action = iota
	ActionRerun
)

func (a Action) String() string {
	if a == ActionRerun {
		return "rerun"
	}
	return "done"
}

// Store is the session-scoped key-value state the controller reads and
// mutates.  Absent keys read as the empty string.
type Store interface {
	GetKV(ctx context.Context, name string) (string, error)
	SetKV(ctx context.Context, name string, value string) error
}

type ControllerOpts struct {
	Label       string
	Language    string
	InitialCode string
	WidgetKey   string
	RerunDelay  time.Duration
}

func (opts ControllerOpts) withDefaults() ControllerOpts {
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.InitialCode == "" {
		opts.InitialCode = DefaultInitialCode
	}
	if opts.WidgetKey == "" {
		opts.WidgetKey = DefaultWidgetKey
	}
	if opts.RerunDelay == 0 {
		opts.RerunDelay = DefaultRerunDelay
	}
	return opts
}

type Controller struct {
	store   Store
	invoker editor.Invoker
	opts    ControllerOpts
	sleepFn func(d time.Duration) // injectable for tests
}

func MakeController(store Store, invoker editor.Invoker, opts ControllerOpts) *Controller {
	return &Controller{
		store:   store,
		invoker: invoker,
		opts:    opts.withDefaults(),
		sleepFn: time.Sleep,
	}
}

// RunPass executes one pass of the page controller.  It returns ActionRerun
// when session state was mutated and the pass must be re-executed from the
// top, ActionDone otherwise.  The only de-duplication rule is the uuid
// comparison against session state; that is what keeps rerun from looping.
func (c *Controller) RunPass(ctx context.Context) (Action, error) {
	suggestion, err := c.store.GetKV(ctx, KeySuggestion)
	if err != nil {
		return ActionDone, err
	}
	config := editor.EditorConfig{
		Label:       c.opts.Label,
		Language:    c.opts.Language,
		InitialCode: c.opts.InitialCode,
		Suggestion:  suggestion,
		Key:         c.opts.WidgetKey,
	}
	result, err := c.invoker.Invoke(ctx, config)
	if err != nil {
		return ActionDone, err
	}
	var candidateUUID string
	if result != nil {
		candidateUUID = result.UUID
	}
	if result == nil || candidateUUID == "" {
		return ActionDone, nil
	}
	lastUUID, err := c.store.GetKV(ctx, KeyUUID)
	if err != nil {
		return ActionDone, err
	}
	if candidateUUID == lastUUID {
		return ActionDone, nil
	}
	newSuggestion := SuggestionPrefix + result.BeforeCursor + "`"
	if err := c.store.SetKV(ctx, KeySuggestion, newSuggestion); err != nil {
		return ActionDone, err
	}
	if err := c.store.SetKV(ctx, KeyUUID, candidateUUID); err != nil {
		return ActionDone, err
	}
	// the frontend widget needs a beat to re-initialize before the rerun's
	// config push lands (TODO diagnose the underlying re-init race in the
	// widget glue and remove this delay)
	c.sleepFn(c.opts.RerunDelay)
	return ActionRerun, nil
}
