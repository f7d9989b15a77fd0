// Package gateway streams pipeline output to WebSocket clients. Each
// message is published on a named channel; clients receive the latest
// message per channel on connect and may backfill gaps from a per-channel
// replay buffer.
package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channels published by the analytics binaries.
const (
	ChannelReport    = "report"    // pipeline.Report for every sample
	ChannelFrame     = "frame"     // render.Frame after each recompute
	ChannelStability = "stability" // stability.Result
)

// Channels lists every channel a client can subscribe to.
var Channels = []string{ChannelReport, ChannelFrame, ChannelStability}

// DefaultReplaySize is the number of envelopes kept per channel.
const DefaultReplaySize = 500

// Hub fans published messages out to connected clients.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	latest      map[string]latestEntry
	seq         int64
	channelSeqs map[string]int64
	replayBufs  map[string]*ReplayBuffer
	replaySize  int

	upgrader websocket.Upgrader
	now      func() time.Time
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// NewHub creates an empty hub keeping replaySize envelopes per channel.
func NewHub(replaySize int) *Hub {
	if replaySize <= 0 {
		replaySize = DefaultReplaySize
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		latest:      make(map[string]latestEntry),
		channelSeqs: make(map[string]int64),
		replayBufs:  make(map[string]*ReplayBuffer),
		replaySize:  replaySize,
		upgrader: websocket.Upgrader{
			CheckOrigin:       func(r *http.Request) bool { return true },
			EnableCompression: true,
		},
		now: time.Now,
	}
}

// Publish marshals v and broadcasts it on channel.
func (h *Hub) Publish(channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gateway: encode %s: %w", channel, err)
	}
	h.Broadcast(channel, data)
	return nil
}

// Broadcast sends pre-encoded JSON data on channel to every subscribed
// client. Slow clients whose send queue is full miss the message and can
// backfill it by sequence number.
func (h *Hub) Broadcast(channel string, data []byte) {
	now := h.now().UTC()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.channelSeqs[channel]++
	channelSeq := h.channelSeqs[channel]
	h.latest[channel] = latestEntry{Data: data, TS: now, Seq: channelSeq}
	rb, ok := h.replayBufs[channel]
	if !ok {
		rb = NewReplayBuffer(h.replaySize)
		h.replayBufs[channel] = rb
	}
	h.mu.Unlock()

	buf := envelope(channel, data, now, seq, channelSeq)
	rb.Push(channelSeq, buf)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(channel) {
			continue
		}
		select {
		case c.send <- buf:
		default:
		}
	}
}

// envelope builds {"channel":...,"data":...,"ts":...,"seq":N,"channel_seq":M}
// without a reflection pass over data.
func envelope(channel string, data []byte, ts time.Time, seq, channelSeq int64) []byte {
	buf := make([]byte, 0, len(channel)+len(data)+160)
	buf = append(buf, `{"channel":`...)
	buf = strconv.AppendQuote(buf, channel)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"channel_seq":`...)
	buf = strconv.AppendInt(buf, channelSeq, 10)
	buf = append(buf, '}')
	return buf
}

// ServeHTTP upgrades the request to a WebSocket and registers the client.
// Query parameters: channels (comma-separated, empty means all) and
// last_ts (RFC3339Nano; only newer latest values are sent on connect).
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway: upgrade failed", "error", err)
		return
	}

	c := newClient(h, conn, splitChannels(r.URL.Query().Get("channels")))
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	slog.Info("gateway: client connected", "clients", count)

	c.sendInitialState(r.URL.Query().Get("last_ts"))
	go c.writePump()
	go c.readPump()
}

// RemoveClient unregisters c and closes its send queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChannelSeq returns the last sequence number published on channel.
func (h *Hub) ChannelSeq(channel string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelSeqs[channel]
}

// Replay returns buffered envelopes of channel with sequence in
// [fromSeq, toSeq], oldest first.
func (h *Hub) Replay(channel string, fromSeq, toSeq int64) [][]byte {
	h.mu.RLock()
	rb, ok := h.replayBufs[channel]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	entries := rb.Range(fromSeq, toSeq)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

// ReplayHandler serves /replay?channel=report&from=3&to=9 as a JSON array
// of envelopes.
func (h *Hub) ReplayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	channel := q.Get("channel")
	from, errFrom := strconv.ParseInt(q.Get("from"), 10, 64)
	to, errTo := strconv.ParseInt(q.Get("to"), 10, 64)
	if channel == "" || errFrom != nil || errTo != nil {
		http.Error(w, "channel, from and to are required", http.StatusBadRequest)
		return
	}

	msgs := h.Replay(channel, from, to)
	raw := make([]json.RawMessage, len(msgs))
	for i, m := range msgs {
		raw[i] = m
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(raw)
}

func splitChannels(s string) []string {
	var out []string
	for _, ch := range strings.Split(s, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
