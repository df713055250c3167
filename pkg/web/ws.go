// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/wavetermdev/copad/pkg/cconfig"
	"github.com/wavetermdev/copad/pkg/cstore"
	"github.com/wavetermdev/copad/pkg/editor"
	"github.com/wavetermdev/copad/pkg/eventbus"
	"github.com/wavetermdev/copad/pkg/page"
	"github.com/wavetermdev/copad/pkg/panichandler"
	"github.com/wavetermdev/copad/pkg/util/utilfn"
)

const wsReadWaitTimeout = 15 * time.Second
const wsWriteWaitTimeout = 10 * time.Second
const wsPingPeriodTickTime = 10 * time.Second
const wsInitialPingTime = 1 * time.Second

// incoming ws message types
const (
	WSMsg_Ping              = "ping"
	WSMsg_Pong              = "pong"
	WSMsg_EditorObservation = "editor:observation"
)

var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:   4 * 1024,
	WriteBufferSize:  32 * 1024,
	HandshakeTimeout: 1 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// blocking
func RunWebSocketServer(listener net.Listener) {
	gr := mux.NewRouter()
	gr.HandleFunc("/ws", HandleWs)
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		WriteTimeout:   HttpWriteTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        gr,
	}
	server.SetKeepAlivesEnabled(false)
	log.Printf("Running websocket server on %s\n", listener.Addr())
	err := server.Serve(listener)
	if err != nil {
		log.Printf("[error] trying to run websocket server: %v\n", err)
	}
}

func HandleWs(w http.ResponseWriter, r *http.Request) {
	err := HandleWsInternal(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getMessageType(jmsg map[string]any) string {
	return utilfn.GetStrFromMap(jmsg, "type")
}

// processObservation records a widget observation and kicks off a controller
// run for the session.
func processObservation(sessionId string, jmsg map[string]any) {
	settings := cconfig.GetWatcher().GetFullConfig().Settings
	widgetKey := utilfn.GetStrFromMap(jmsg, "widgetkey")
	if widgetKey == "" {
		widgetKey = settings.EditorWidgetKey
	}
	result := editor.EditorResult{
		UUID:         utilfn.GetStrFromMap(jmsg, "uuid"),
		BeforeCursor: utilfn.GetStrFromMap(jmsg, "beforecursor"),
	}
	editor.GlobalBridge.PostObservation(sessionId, widgetKey, result)
	err := page.RunSessionPass(sessionId, settings.ControllerOpts())
	if err != nil {
		log.Printf("[ws] cannot enqueue pass sessionid:%s: %v\n", sessionId, err)
	}
}

func processMessage(sessionId string, jmsg map[string]any) {
	defer func() {
		panichandler.PanicHandler("ws:processMessage", recover())
	}()
	msgType := getMessageType(jmsg)
	switch msgType {
	case WSMsg_EditorObservation:
		processObservation(sessionId, jmsg)
	default:
		log.Printf("[ws] unknown message type %q\n", msgType)
	}
}

func ReadLoop(conn *websocket.Conn, sessionId string, outputCh chan any, closeCh chan any) {
	readWait := wsReadWaitTimeout
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(readWait))
	defer close(closeCh)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ReadPump error: %v\n", err)
			break
		}
		jmsg := map[string]any{}
		err = json.Unmarshal(message, &jmsg)
		if err != nil {
			log.Printf("Error unmarshalling json: %v\n", err)
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		msgType := getMessageType(jmsg)
		if msgType == WSMsg_Pong {
			// nothing
			continue
		}
		if msgType == WSMsg_Ping {
			now := time.Now()
			pongMessage := map[string]any{"type": WSMsg_Pong, "stime": now.UnixMilli()}
			outputCh <- pongMessage
			continue
		}
		processMessage(sessionId, jmsg)
	}
}

func WritePing(conn *websocket.Conn) error {
	now := time.Now()
	pingMessage := map[string]any{"type": WSMsg_Ping, "stime": now.UnixMilli()}
	jsonVal, _ := json.Marshal(pingMessage)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout)) // no error
	err := conn.WriteMessage(websocket.TextMessage, jsonVal)
	if err != nil {
		return err
	}
	return nil
}

func WriteLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any) {
	ticker := time.NewTicker(wsInitialPingTime)
	defer ticker.Stop()
	initialPing := true
	for {
		select {
		case msg := <-outputCh:
			var barr []byte
			var err error
			if _, ok := msg.([]byte); ok {
				barr = msg.([]byte)
			} else {
				barr, err = json.Marshal(msg)
				if err != nil {
					log.Printf("cannot marshal websocket message: %v\n", err)
					// just loop again
					break
				}
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout))
			err = conn.WriteMessage(websocket.TextMessage, barr)
			if err != nil {
				conn.Close()
				log.Printf("WritePump error: %v\n", err)
				return
			}

		case <-ticker.C:
			err := WritePing(conn)
			if err != nil {
				log.Printf("WritePump error: %v\n", err)
				return
			}
			if initialPing {
				initialPing = false
				ticker.Reset(wsPingPeriodTickTime)
			}

		case <-closeCh:
			return
		}
	}
}

func HandleWsInternal(w http.ResponseWriter, r *http.Request) error {
	sessionId, err := validateSessionRequest(r)
	if err != nil {
		return fmt.Errorf("ws auth failed: %w", err)
	}
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("WebSocket Upgrade Failed: %v", err)
	}
	defer conn.Close()
	wsConnId := uuid.New().String()
	log.Printf("New websocket connection: sessionid:%s connid:%s\n", sessionId, wsConnId)
	err = cstore.EnsureSession(r.Context(), sessionId)
	if err != nil {
		return fmt.Errorf("cannot ensure session: %w", err)
	}
	outputCh := make(chan any, 100)
	closeCh := make(chan any)
	eventbus.RegisterWSChannel(wsConnId, sessionId, outputCh)
	defer eventbus.UnregisterWSChannel(wsConnId)
	// initial pass renders the widget config into the fresh connection
	settings := cconfig.GetWatcher().GetFullConfig().Settings
	err = page.RunSessionPass(sessionId, settings.ControllerOpts())
	if err != nil {
		log.Printf("[ws] cannot enqueue initial pass sessionid:%s: %v\n", sessionId, err)
	}
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		// read loop
		defer wg.Done()
		ReadLoop(conn, sessionId, outputCh, closeCh)
	}()
	go func() {
		// write loop
		defer wg.Done()
		WriteLoop(conn, outputCh, closeCh)
	}()
	wg.Wait()
	return nil
}
