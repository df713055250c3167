// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func initDb(t *testing.T) {
	t.Logf("initializing db for %q", t.Name())
	useTestingDb = true
	err := InitSessionStore()
	if err != nil {
		t.Fatalf("error initializing sessionstore: %v", err)
	}
}

func cleanupDb(t *testing.T) {
	t.Logf("cleaning up db for %q", t.Name())
	CloseSessionStore()
	useTestingDb = false
}

func testCtx(t *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func TestEnsureSession(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	sessionId := uuid.New().String()
	err := EnsureSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error ensuring session: %v", err)
	}
	session, err := GetSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error getting session: %v", err)
	}
	if session == nil {
		t.Fatalf("session not found")
	}
	if session.SessionId != sessionId {
		t.Fatalf("sessionid mismatch")
	}
	if session.CreatedTs == 0 || session.LastActiveTs == 0 {
		t.Fatalf("timestamps not set")
	}
	// ensure again must not error and must not lose the session
	err = EnsureSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error re-ensuring session: %v", err)
	}
}

func TestEnsureSessionEmptyId(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	err := EnsureSession(ctx, "")
	if err == nil {
		t.Fatalf("expected error for empty sessionid")
	}
}

func TestKVDefaultEmpty(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	val, err := GetKV(ctx, uuid.New().String(), "suggestion")
	if err != nil {
		t.Fatalf("error getting kv: %v", err)
	}
	if val != "" {
		t.Fatalf("absent key must read as empty string, got %q", val)
	}
}

func TestKVSetGet(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	sessionId := uuid.New().String()
	err := EnsureSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error ensuring session: %v", err)
	}
	err = SetKV(ctx, sessionId, "uuid", "abc")
	if err != nil {
		t.Fatalf("error setting kv: %v", err)
	}
	val, err := GetKV(ctx, sessionId, "uuid")
	if err != nil {
		t.Fatalf("error getting kv: %v", err)
	}
	if val != "abc" {
		t.Fatalf("value mismatch, got %q", val)
	}
	// overwrite
	err = SetKV(ctx, sessionId, "uuid", "xyz2")
	if err != nil {
		t.Fatalf("error overwriting kv: %v", err)
	}
	val, err = GetKV(ctx, sessionId, "uuid")
	if err != nil {
		t.Fatalf("error getting kv: %v", err)
	}
	if val != "xyz2" {
		t.Fatalf("overwrite failed, got %q", val)
	}
}

func TestKVSessionIsolation(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	session1 := uuid.New().String()
	session2 := uuid.New().String()
	err := SetKV(ctx, session1, "suggestion", "for session 1")
	if err != nil {
		t.Fatalf("error setting kv: %v", err)
	}
	val, err := GetKV(ctx, session2, "suggestion")
	if err != nil {
		t.Fatalf("error getting kv: %v", err)
	}
	if val != "" {
		t.Fatalf("session state leaked across sessions: %q", val)
	}
}

func TestGetAllKV(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	sessionId := uuid.New().String()
	SetKV(ctx, sessionId, "uuid", "abc")
	SetKV(ctx, sessionId, "suggestion", "some text")
	kvMap, err := GetAllKV(ctx, sessionId)
	if err != nil {
		t.Fatalf("error getting all kv: %v", err)
	}
	if len(kvMap) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(kvMap))
	}
	if kvMap["uuid"] != "abc" || kvMap["suggestion"] != "some text" {
		t.Fatalf("kv map mismatch: %v", kvMap)
	}
}

func TestDeleteSession(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	sessionId := uuid.New().String()
	EnsureSession(ctx, sessionId)
	SetKV(ctx, sessionId, "uuid", "abc")
	err := DeleteSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error deleting session: %v", err)
	}
	session, err := GetSession(ctx, sessionId)
	if err != nil {
		t.Fatalf("error getting session: %v", err)
	}
	if session != nil {
		t.Fatalf("session should be gone")
	}
	val, _ := GetKV(ctx, sessionId, "uuid")
	if val != "" {
		t.Fatalf("kv should be gone, got %q", val)
	}
}

func TestSessionView(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)

	ctx, cancelFn := testCtx(t)
	defer cancelFn()
	sessionId := uuid.New().String()
	sv := MakeSessionView(sessionId)
	err := sv.SetKV(ctx, "suggestion", "view write")
	if err != nil {
		t.Fatalf("error setting via view: %v", err)
	}
	val, err := GetKV(ctx, sessionId, "suggestion")
	if err != nil {
		t.Fatalf("error getting kv: %v", err)
	}
	if val != "view write" {
		t.Fatalf("view write not visible, got %q", val)
	}
}
