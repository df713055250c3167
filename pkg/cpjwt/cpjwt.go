// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cpjwt issues and validates the ed25519-signed session tokens that
// bind a browser websocket to its session store.
package cpjwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const IssuerCopad = "copad"

const DefaultTokenExpiry = 24 * time.Hour

var (
	globalLock sync.Mutex
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
)

type SessionClaims struct {
	jwt.RegisteredClaims
	SessionId string `json:"sessionid,omitempty"`
}

// GenerateKeys creates a fresh process-scoped key pair.  Tokens do not
// survive a server restart; sessions do (the session id is the durable part).
func GenerateKeys() error {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	publicKey = pubKey
	privateKey = privKey
	return nil
}

func SignSessionToken(sessionId string) (string, error) {
	globalLock.Lock()
	privKey := privateKey
	globalLock.Unlock()
	if privKey == nil {
		return "", fmt.Errorf("private key not set")
	}
	if sessionId == "" {
		return "", fmt.Errorf("cannot sign token with empty sessionid")
	}
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    IssuerCopad,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(DefaultTokenExpiry)),
		},
		SessionId: sessionId,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tokenStr, err := token.SignedString(privKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return tokenStr, nil
}

// ValidateSessionToken parses the token and returns the session id it was
// issued for.
func ValidateSessionToken(tokenStr string) (string, error) {
	globalLock.Lock()
	pubKey := publicKey
	globalLock.Unlock()
	if pubKey == nil {
		return "", fmt.Errorf("public key not set")
	}
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.SessionId == "" {
		return "", fmt.Errorf("token has no sessionid")
	}
	return claims.SessionId, nil
}
