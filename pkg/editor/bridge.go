// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"context"
	"sync"

	"github.com/wavetermdev/copad/pkg/eventbus"
)

// Bridge is the live Invoker implementation.  The frontend posts widget
// observations over the websocket; the bridge retains the latest observation
// per (session, widget key).  Invoking the widget pushes the config to the
// page through the eventbus and returns that latest observation.
type Bridge struct {
	lock         sync.Mutex
	observations map[obsKeyType]*EditorResult
}

type obsKeyType struct {
	SessionId string
	WidgetKey string
}

// GlobalBridge is the process-wide bridge instance (set up at startup,
// analogous to a broker singleton).
var GlobalBridge = MakeBridge()

func MakeBridge() *Bridge {
	return &Bridge{
		observations: make(map[obsKeyType]*EditorResult),
	}
}

// PostObservation records the latest observation for (sessionId, widgetKey).
// Older observations are discarded; the page controller only ever acts on
// the most recent one.
func (b *Bridge) PostObservation(sessionId string, widgetKey string, result EditorResult) {
	b.lock.Lock()
	defer b.lock.Unlock()
	resultCopy := result
	b.observations[obsKeyType{SessionId: sessionId, WidgetKey: widgetKey}] = &resultCopy
}

func (b *Bridge) getObservation(sessionId string, widgetKey string) *EditorResult {
	b.lock.Lock()
	defer b.lock.Unlock()
	result := b.observations[obsKeyType{SessionId: sessionId, WidgetKey: widgetKey}]
	if result == nil {
		return nil
	}
	resultCopy := *result
	return &resultCopy
}

// ClearSession drops retained observations for a session (called when the
// session is deleted).
func (b *Bridge) ClearSession(sessionId string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for key := range b.observations {
		if key.SessionId == sessionId {
			delete(b.observations, key)
		}
	}
}

// SessionInvoker binds the bridge to one session, producing the Invoker the
// page controller consumes.
func (b *Bridge) SessionInvoker(sessionId string) Invoker {
	return &sessionInvoker{bridge: b, sessionId: sessionId}
}

type sessionInvoker struct {
	bridge    *Bridge
	sessionId string
}

func (si *sessionInvoker) Invoke(ctx context.Context, config EditorConfig) (*EditorResult, error) {
	eventbus.SendEventToSession(si.sessionId, eventbus.WSEventType{
		EventType: eventbus.WSEvent_EditorConfig,
		Data:      config,
	})
	return si.bridge.getObservation(si.sessionId, config.Key), nil
}
