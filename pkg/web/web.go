// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the demo page and its websocket endpoint.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wavetermdev/copad/pkg/cpjwt"
	"github.com/wavetermdev/copad/pkg/cstore"
	"github.com/wavetermdev/copad/pkg/util/utilfn"
)

//go:embed static
var staticFS embed.FS

type WebFnType = func(http.ResponseWriter, *http.Request)

// Header constants
const (
	CacheControlHeaderKey     = "Cache-Control"
	CacheControlHeaderNoCache = "no-cache"

	ContentTypeHeaderKey = "Content-Type"
	ContentTypeJson      = "application/json"
)

const HttpReadTimeout = 5 * time.Second
const HttpWriteTimeout = 21 * time.Second
const HttpMaxHeaderBytes = 60000

type WebFnOpts struct {
	AllowCaching bool
	JsonErrors   bool
}

func marshalReturnValue(data any, err error) []byte {
	var mapRtn = make(map[string]any)
	if err != nil {
		mapRtn["error"] = err.Error()
	} else {
		mapRtn["success"] = true
		mapRtn["data"] = data
	}
	rtn, err := json.Marshal(mapRtn)
	if err != nil {
		return marshalReturnValue(nil, fmt.Errorf("error marshalling return value: %v", err))
	}
	return rtn
}

func WebFnWrap(opts WebFnOpts, fn WebFnType) WebFnType {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recErr := recover()
			if recErr == nil {
				return
			}
			panicStr := fmt.Sprintf("panic: %v", recErr)
			log.Printf("panic: %v\n", recErr)
			debug.PrintStack()
			if opts.JsonErrors {
				jsonRtn := marshalReturnValue(nil, fmt.Errorf("%s", panicStr))
				w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
				w.WriteHeader(http.StatusOK)
				w.Write(jsonRtn)
			} else {
				http.Error(w, panicStr, http.StatusInternalServerError)
			}
		}()
		if !opts.AllowCaching {
			w.Header().Set(CacheControlHeaderKey, CacheControlHeaderNoCache)
		}
		fn(w, r)
	}
}

var wsServerAddrLock sync.Mutex
var wsServerAddr string

// SetWSServerAddr records the websocket listener address so the page can
// discover it via /api/config.
func SetWSServerAddr(addr string) {
	wsServerAddrLock.Lock()
	defer wsServerAddrLock.Unlock()
	wsServerAddr = addr
}

func handleGetConfig(w http.ResponseWriter, r *http.Request) {
	wsServerAddrLock.Lock()
	addr := wsServerAddr
	wsServerAddrLock.Unlock()
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	json.NewEncoder(w).Encode(map[string]any{"wsaddr": addr})
}

// handleCreateSession mints a new session (or revalidates an existing one
// passed back by the page) and returns its signed token.
func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	sessionId := r.URL.Query().Get("sessionid")
	if sessionId != "" {
		if _, err := uuid.Parse(sessionId); err != nil {
			http.Error(w, fmt.Sprintf("invalid sessionid: %v", err), http.StatusBadRequest)
			return
		}
	} else {
		sessionId = uuid.New().String()
	}
	err := cstore.EnsureSession(r.Context(), sessionId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error ensuring session: %v", err), http.StatusInternalServerError)
		return
	}
	token, err := cpjwt.SignSessionToken(sessionId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error signing session token: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	json.NewEncoder(w).Encode(map[string]any{"sessionid": sessionId, "token": token})
}

func validateSessionRequest(r *http.Request) (string, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return "", fmt.Errorf("token is required")
	}
	sessionId, err := cpjwt.ValidateSessionToken(tokenStr)
	if err != nil {
		return "", err
	}
	return sessionId, nil
}

// handleGetState dumps the session's kv state (debugging aid).
func handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionId, err := validateSessionRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	kvMap, err := cstore.GetAllKV(r.Context(), sessionId)
	if err != nil {
		http.Error(w, fmt.Sprintf("error getting session state: %v", err), http.StatusInternalServerError)
		return
	}
	jsonStr, err := utilfn.MarshalIndentNoHTMLString(kvMap, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("error marshalling session state: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	w.Write([]byte(jsonStr))
}

func MakeTCPListener(name string, serverAddr string) (net.Listener, error) {
	rtn, err := net.Listen("tcp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("error creating %s listener at %v: %v", name, serverAddr, err)
	}
	log.Printf("Server [%s] listening on %s\n", name, rtn.Addr())
	return rtn, nil
}

// blocking
func RunWebServer(listener net.Listener) {
	gr := mux.NewRouter()
	gr.HandleFunc("/api/config", WebFnWrap(WebFnOpts{}, handleGetConfig))
	gr.HandleFunc("/api/session", WebFnWrap(WebFnOpts{JsonErrors: true}, handleCreateSession))
	gr.HandleFunc("/api/state", WebFnWrap(WebFnOpts{}, handleGetState))
	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("ERROR: cannot sub static fs: %v\n", err)
		return
	}
	gr.PathPrefix("/").Handler(http.FileServer(http.FS(staticSubFS)))
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		WriteTimeout:   HttpWriteTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        gr,
	}
	err = server.Serve(listener)
	if err != nil {
		log.Printf("ERROR: %v\n", err)
	}
}
