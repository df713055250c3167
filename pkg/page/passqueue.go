// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package page

import (
	"fmt"
	"sync"

	"github.com/wavetermdev/copad/pkg/panichandler"
)

const DefaultQueueSize = 20

// PassQueue serializes controller runs per session id while letting
// different sessions run concurrently.
type PassQueue struct {
	lock      *sync.Mutex
	m         map[string]*pqEntry
	queueSize int
}

type pqEntry struct {
	lock    *sync.Mutex
	running bool
	queue   chan func()
}

func MakePassQueue(queueSize int) *PassQueue {
	return &PassQueue{
		lock:      &sync.Mutex{},
		m:         make(map[string]*pqEntry),
		queueSize: queueSize,
	}
}

func (pq *PassQueue) getEntry(sessionId string) *pqEntry {
	pq.lock.Lock()
	defer pq.lock.Unlock()
	entry := pq.m[sessionId]
	if entry == nil {
		entry = &pqEntry{
			lock:  &sync.Mutex{},
			queue: make(chan func(), pq.queueSize),
		}
		pq.m[sessionId] = entry
	}
	return entry
}

func (entry *pqEntry) add(fn func()) error {
	select {
	case entry.queue <- fn:
	default:
		return fmt.Errorf("pass queue full")
	}
	entry.tryRun()
	return nil
}

func (entry *pqEntry) tryRun() {
	entry.lock.Lock()
	defer entry.lock.Unlock()
	if entry.running {
		return
	}
	if len(entry.queue) > 0 {
		entry.running = true
		go entry.run()
	}
}

func (entry *pqEntry) run() {
	for {
		select {
		case fn := <-entry.queue:
			runPassFn(fn)
		default:
			entry.lock.Lock()
			entry.running = false
			entry.lock.Unlock()
			entry.tryRun()
			return
		}
	}
}

func runPassFn(fn func()) {
	defer func() {
		panichandler.PanicHandler("PassQueue:runPassFn", recover())
	}()
	fn()
}

func (pq *PassQueue) Enqueue(sessionId string, fn func()) error {
	entry := pq.getEntry(sessionId)
	err := entry.add(fn)
	if err != nil {
		return fmt.Errorf("cannot enqueue pass for session %s: %v", sessionId, err)
	}
	return nil
}
