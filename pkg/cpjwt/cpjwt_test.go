// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cpjwt

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	err := GenerateKeys()
	if err != nil {
		t.Fatalf("error generating keys: %v", err)
	}
	token, err := SignSessionToken("session-abc")
	if err != nil {
		t.Fatalf("error signing token: %v", err)
	}
	sessionId, err := ValidateSessionToken(token)
	if err != nil {
		t.Fatalf("error validating token: %v", err)
	}
	if sessionId != "session-abc" {
		t.Fatalf("sessionid mismatch, got %q", sessionId)
	}
}

func TestTokenEmptySessionId(t *testing.T) {
	err := GenerateKeys()
	if err != nil {
		t.Fatalf("error generating keys: %v", err)
	}
	_, err = SignSessionToken("")
	if err == nil {
		t.Fatalf("expected error signing empty sessionid")
	}
}

func TestTokenGarbage(t *testing.T) {
	err := GenerateKeys()
	if err != nil {
		t.Fatalf("error generating keys: %v", err)
	}
	_, err = ValidateSessionToken("not-a-token")
	if err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestTokenWrongKey(t *testing.T) {
	err := GenerateKeys()
	if err != nil {
		t.Fatalf("error generating keys: %v", err)
	}
	token, err := SignSessionToken("session-abc")
	if err != nil {
		t.Fatalf("error signing token: %v", err)
	}
	// rotate keys; the old token must stop validating
	err = GenerateKeys()
	if err != nil {
		t.Fatalf("error regenerating keys: %v", err)
	}
	_, err = ValidateSessionToken(token)
	if err == nil {
		t.Fatalf("expected validation failure after key rotation")
	}
}
