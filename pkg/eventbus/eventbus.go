// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package eventbus routes server-side events to connected browser sessions
// over their registered websocket output channels.
package eventbus

import (
	"errors"
	"log"
	"sync"
)

const (
	WSEvent_EditorConfig = "editor:config"
	WSEvent_Config       = "config"
	WSEvent_SessionState = "session:state"
)

var ErrQueueFull = errors.New("event queue full")

type WSEventType struct {
	EventType string `json:"eventtype"`
	Data      any    `json:"data,omitempty"`
}

type wsChannelType struct {
	ConnId    string
	SessionId string
	Ch        chan any
}

var globalLock = &sync.Mutex{}
var wsMap = make(map[string]*wsChannelType) // connid -> channel

func RegisterWSChannel(connId string, sessionId string, ch chan any) {
	globalLock.Lock()
	defer globalLock.Unlock()
	wsMap[connId] = &wsChannelType{ConnId: connId, SessionId: sessionId, Ch: ch}
}

func UnregisterWSChannel(connId string) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(wsMap, connId)
}

func getChannelsForSession(sessionId string) []*wsChannelType {
	globalLock.Lock()
	defer globalLock.Unlock()
	var rtn []*wsChannelType
	for _, wsCh := range wsMap {
		if wsCh.SessionId == sessionId {
			rtn = append(rtn, wsCh)
		}
	}
	return rtn
}

func getAllChannels() []*wsChannelType {
	globalLock.Lock()
	defer globalLock.Unlock()
	rtn := make([]*wsChannelType, 0, len(wsMap))
	for _, wsCh := range wsMap {
		rtn = append(rtn, wsCh)
	}
	return rtn
}

// SendEventToSession delivers the event to every websocket attached to the
// session.  Slow readers are skipped rather than blocking the sender (the
// page controller must never stall on a dead connection).
func SendEventToSession(sessionId string, event WSEventType) {
	for _, wsCh := range getChannelsForSession(sessionId) {
		select {
		case wsCh.Ch <- event:
		default:
			log.Printf("[eventbus] dropping %q event, queue full connid:%s\n", event.EventType, wsCh.ConnId)
		}
	}
}

// SendEvent broadcasts the event to all connected websockets.
func SendEvent(event WSEventType) {
	for _, wsCh := range getAllChannels() {
		select {
		case wsCh.Ch <- event:
		default:
			log.Printf("[eventbus] dropping %q event, queue full connid:%s\n", event.EventType, wsCh.ConnId)
		}
	}
}

// SendEventToSessionStrict is like SendEventToSession but reports a full
// queue instead of dropping.
func SendEventToSessionStrict(sessionId string, event WSEventType) error {
	var rtnErr error
	for _, wsCh := range getChannelsForSession(sessionId) {
		select {
		case wsCh.Ch <- event:
		default:
			rtnErr = ErrQueueFull
		}
	}
	return rtnErr
}

func NumConnectionsForSession(sessionId string) int {
	return len(getChannelsForSession(sessionId))
}
