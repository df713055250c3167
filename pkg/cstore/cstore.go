// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cstore implements the server-side session store: a per-session,
// persistent string key-value map.  This is the state that survives page
// controller reruns (the equivalent of a reactive framework's session_state).
package cstore

import (
	"context"
	"fmt"
	"time"
)

type SessionType struct {
	SessionId    string `json:"sessionid"`
	CreatedTs    int64  `json:"createdts"`
	LastActiveTs int64  `json:"lastactivets"`
}

type kvRowType struct {
	SessionId string
	Name      string
	Value     string
	UpdatedTs int64
}

// EnsureSession creates the session row if it does not exist and bumps
// lastactivets either way.
func EnsureSession(ctx context.Context, sessionId string) error {
	if sessionId == "" {
		return fmt.Errorf("cannot ensure session with empty sessionid")
	}
	return WithTx(ctx, func(tx *TxWrap) error {
		nowTs := time.Now().UnixMilli()
		query := `SELECT sessionid FROM db_session WHERE sessionid = ?`
		if tx.Exists(query, sessionId) {
			tx.Exec(`UPDATE db_session SET lastactivets = ? WHERE sessionid = ?`, nowTs, sessionId)
			return nil
		}
		tx.Exec(`INSERT INTO db_session (sessionid, createdts, lastactivets) VALUES (?, ?, ?)`, sessionId, nowTs, nowTs)
		return nil
	})
}

func GetSession(ctx context.Context, sessionId string) (*SessionType, error) {
	return WithTxRtn(ctx, func(tx *TxWrap) (*SessionType, error) {
		var session SessionType
		query := `SELECT sessionid, createdts, lastactivets FROM db_session WHERE sessionid = ?`
		found := tx.Get(&session, query, sessionId)
		if !found {
			return nil, nil
		}
		return &session, nil
	})
}

// GetKV returns the stored value for (sessionId, name).  Absent keys read as
// the empty string, matching session-state semantics where a missing key and
// an empty value are indistinguishable to the page controller.
func GetKV(ctx context.Context, sessionId string, name string) (string, error) {
	return WithTxRtn(ctx, func(tx *TxWrap) (string, error) {
		query := `SELECT value FROM db_session_kv WHERE sessionid = ? AND name = ?`
		return tx.GetString(query, sessionId, name), nil
	})
}

func SetKV(ctx context.Context, sessionId string, name string, value string) error {
	if sessionId == "" {
		return fmt.Errorf("cannot set kv with empty sessionid")
	}
	if name == "" {
		return fmt.Errorf("cannot set kv with empty name")
	}
	return WithTx(ctx, func(tx *TxWrap) error {
		nowTs := time.Now().UnixMilli()
		query := `INSERT INTO db_session_kv (sessionid, name, value, updatedts)
		          VALUES (?, ?, ?, ?)
		          ON CONFLICT (sessionid, name) DO UPDATE SET value = excluded.value, updatedts = excluded.updatedts`
		tx.Exec(query, sessionId, name, value, nowTs)
		tx.Exec(`UPDATE db_session SET lastactivets = ? WHERE sessionid = ?`, nowTs, sessionId)
		return nil
	})
}

func DeleteKV(ctx context.Context, sessionId string, name string) error {
	return WithTx(ctx, func(tx *TxWrap) error {
		tx.Exec(`DELETE FROM db_session_kv WHERE sessionid = ? AND name = ?`, sessionId, name)
		return nil
	})
}

func GetAllKV(ctx context.Context, sessionId string) (map[string]string, error) {
	return WithTxRtn(ctx, func(tx *TxWrap) (map[string]string, error) {
		var rows []kvRowType
		query := `SELECT sessionid, name, value, updatedts FROM db_session_kv WHERE sessionid = ?`
		tx.Select(&rows, query, sessionId)
		rtn := make(map[string]string)
		for _, row := range rows {
			rtn[row.Name] = row.Value
		}
		return rtn, nil
	})
}

func DeleteSession(ctx context.Context, sessionId string) error {
	return WithTx(ctx, func(tx *TxWrap) error {
		tx.Exec(`DELETE FROM db_session_kv WHERE sessionid = ?`, sessionId)
		tx.Exec(`DELETE FROM db_session WHERE sessionid = ?`, sessionId)
		return nil
	})
}

// SessionView is the narrow, session-bound store interface consumed by the
// page controller.
type SessionView struct {
	SessionId string
}

func MakeSessionView(sessionId string) *SessionView {
	return &SessionView{SessionId: sessionId}
}

func (sv *SessionView) GetKV(ctx context.Context, name string) (string, error) {
	return GetKV(ctx, sv.SessionId, name)
}

func (sv *SessionView) SetKV(ctx context.Context, name string, value string) error {
	return SetKV(ctx, sv.SessionId, name, value)
}
