// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package page

import (
	"context"
	"log"
	"time"

	"github.com/wavetermdev/copad/pkg/cstore"
	"github.com/wavetermdev/copad/pkg/editor"
)

// MaxPassesPerRun is a safety valve only.  The uuid de-dup gate guarantees a
// run settles after two passes (one mutation, one clean pass); hitting this
// limit means that invariant was broken.
const MaxPassesPerRun = 10

const RunTimeout = 30 * time.Second

// RunUntilDone is the host adapter for the rerun primitive: it re-executes
// RunPass from the top while the controller keeps requesting a rerun.
func RunUntilDone(ctx context.Context, c *Controller) error {
	for passNum := 1; passNum <= MaxPassesPerRun; passNum++ {
		action, err := c.RunPass(ctx)
		if err != nil {
			return err
		}
		if action == ActionDone {
			return nil
		}
	}
	log.Printf("[page] run exceeded %d passes, uuid de-dup gate is not settling\n", MaxPassesPerRun)
	return nil
}

// RunSessionPass enqueues a full controller run for the session.  Runs are
// serialized per session (the host owns the pass; nothing else mutates that
// session's state concurrently) and ordered across enqueues.
func RunSessionPass(sessionId string, opts ControllerOpts) error {
	return globalPassQueue.Enqueue(sessionId, func() {
		ctx, cancelFn := context.WithTimeout(context.Background(), RunTimeout)
		defer cancelFn()
		store := cstore.MakeSessionView(sessionId)
		invoker := editor.GlobalBridge.SessionInvoker(sessionId)
		c := MakeController(store, invoker, opts)
		err := RunUntilDone(ctx, c)
		if err != nil {
			log.Printf("[page] error running pass sessionid:%s: %v\n", sessionId, err)
		}
	})
}

var globalPassQueue = MakePassQueue(DefaultQueueSize)
