// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package snapshotserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jontk/bb-agent/pkg/logging"
)

// nodeEvent is one message pushed to every connected /live/nodes client.
type nodeEvent struct {
	Node      string    `json:"node"`
	Status    string    `json:"status"` // "responding" or "not_responding"
	Timestamp time.Time `json:"timestamp"`
}

// LiveFeed fans out parallel-RPC-agent watchdog observations to any
// number of websocket subscribers. It implements rpcagent.Report, so a
// Dispatcher can be wired directly to it.
type LiveFeed struct {
	logger   logging.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn chan nodeEvent
	done chan struct{}
}

// NewLiveFeed returns an empty hub ready to accept subscribers.
func NewLiveFeed(logger logging.Logger) *LiveFeed {
	return &LiveFeed{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// NodeDidRespond implements rpcagent.Report.
func (f *LiveFeed) NodeDidRespond(name string) {
	f.broadcast(nodeEvent{Node: name, Status: "responding", Timestamp: time.Now()})
}

// NodeNotResponding implements rpcagent.Report.
func (f *LiveFeed) NodeNotResponding(name string) {
	f.broadcast(nodeEvent{Node: name, Status: "not_responding", Timestamp: time.Now()})
}

func (f *LiveFeed) broadcast(ev nodeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.conn <- ev:
		default:
			f.logger.Warn("snapshotserver: dropping live/nodes event, subscriber slow", "node", ev.Node)
		}
	}
}

// HandleWebSocket upgrades the connection and streams nodeEvents until
// the client disconnects or the request context is canceled.
func (f *LiveFeed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("snapshotserver: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := &subscriber{conn: make(chan nodeEvent, 32), done: make(chan struct{})}
	f.addSubscriber(sub)
	defer f.removeSubscriber(sub)

	go f.drainIncoming(conn, sub)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.done:
			return
		case ev := <-sub.conn:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainIncoming discards client messages; this feed is write-only but
// must read to notice the peer closing the connection.
func (f *LiveFeed) drainIncoming(conn *websocket.Conn, sub *subscriber) {
	defer close(sub.done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *LiveFeed) addSubscriber(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[s] = struct{}{}
}

func (f *LiveFeed) removeSubscriber(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, s)
}
