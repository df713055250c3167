// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebFnWrapRecovers(t *testing.T) {
	handler := WebFnWrap(WebFnOpts{}, func(w http.ResponseWriter, r *http.Request) {
		panic("handler blew up")
	})
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic, got %d", rec.Code)
	}
}

func TestWebFnWrapJsonErrors(t *testing.T) {
	handler := WebFnWrap(WebFnOpts{JsonErrors: true}, func(w http.ResponseWriter, r *http.Request) {
		panic("handler blew up")
	})
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("json error mode returns 200, got %d", rec.Code)
	}
	var rtn map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &rtn)
	if err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if rtn["error"] == "" {
		t.Fatalf("expected error field, got %v", rtn)
	}
}

func TestWebFnWrapNoCacheHeader(t *testing.T) {
	handler := WebFnWrap(WebFnOpts{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Header().Get(CacheControlHeaderKey) != CacheControlHeaderNoCache {
		t.Fatalf("expected no-cache header")
	}
}

func TestHandleGetConfig(t *testing.T) {
	SetWSServerAddr("127.0.0.1:9999")
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	handleGetConfig(rec, req)
	var rtn map[string]any
	err := json.Unmarshal(rec.Body.Bytes(), &rtn)
	if err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if rtn["wsaddr"] != "127.0.0.1:9999" {
		t.Fatalf("wsaddr mismatch: %v", rtn)
	}
}

func TestCreateSessionRequiresPost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	handleCreateSession(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCreateSessionRejectsBadId(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/session?sessionid=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	handleCreateSession(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid sessionid, got %d", rec.Code)
	}
}

func TestGetMessageType(t *testing.T) {
	if getMessageType(map[string]any{"type": "ping"}) != "ping" {
		t.Fatalf("type not extracted")
	}
	if getMessageType(map[string]any{"type": 42}) != "" {
		t.Fatalf("non-string type should read as empty")
	}
	if getMessageType(map[string]any{}) != "" {
		t.Fatalf("missing type should read as empty")
	}
}
