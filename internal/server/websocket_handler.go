// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voterscan/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		return true
	},
}

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// HandleLogSocket streams log lines to the client over a WebSocket.
// The connection stays open until the client disconnects.
func HandleLogSocket(w http.ResponseWriter, r *http.Request, l *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HandleLogSocket: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := l.Subscribe()
	defer l.Unsubscribe(ch)

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
