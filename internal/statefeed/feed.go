// Package statefeed subscribes to the backend's per-robot STOMP destination
// and keeps the store's behavioral state current. Every inbound message is
// an idempotent "latest known state" overwrite — no deltas, no ordering
// assumptions beyond the socket's own FIFO delivery.
package statefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/doyun-lab/robotview/internal/config"
	"github.com/doyun-lab/robotview/internal/store"
	"github.com/doyun-lab/robotview/internal/telemetry"
)

// Broadcaster fans console events out to connected render clients.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Options holds everything the feed needs from the caller.
type Options struct {
	Cfg    config.StateConfig
	Store  *store.Store
	Logger *log.Logger
	Hub    Broadcaster
}

// Feed is the behavioral-state channel. Run blocks until the context is
// cancelled, reconnecting on a fixed delay after every failure.
type Feed struct {
	cfg   config.StateConfig
	store *store.Store
	log   *log.Logger
	hub   Broadcaster
}

// New creates a feed. It does not touch the network until Run.
func New(opts Options) *Feed {
	return &Feed{
		cfg:   opts.Cfg,
		store: opts.Store,
		log:   opts.Logger,
		hub:   opts.Hub,
	}
}

// Run connects, subscribes, and consumes state messages until ctx is
// cancelled. Retries are unbounded: the console should always eventually
// reconnect; callers wanting a deadline layer it on the context.
func (f *Feed) Run(ctx context.Context) {
	delay := time.Duration(f.cfg.ReconnectSeconds) * time.Second

	for {
		err := f.session(ctx)
		f.store.SetStateFeedHealth(false)
		f.broadcastHealth(false)

		if ctx.Err() != nil {
			return
		}
		f.log.Printf("state feed: %v; retrying in %s", err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session runs one connect-handshake-subscribe-consume cycle and returns
// the error that ended it.
func (f *Feed) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.URL, err)
	}
	defer conn.Close()

	// Unblock reads when the context ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := f.handshake(conn); err != nil {
		return err
	}

	destination := fmt.Sprintf("/sub/robot/%d", f.cfg.RobotID)
	sub := marshalFrame(frame{
		Command: "SUBSCRIBE",
		Headers: map[string]string{"id": "sub-0", "destination": destination},
	})
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return fmt.Errorf("subscribe %s: %w", destination, err)
	}

	f.log.Printf("state feed subscribed to %s", destination)
	f.store.SetStateFeedHealth(true)
	f.broadcastHealth(true)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fr, err := parseFrame(raw)
		if err != nil {
			// Malformed frame: log and keep the session alive.
			f.log.Printf("state feed: %v", err)
			continue
		}
		if err := f.handleFrame(fr); err != nil {
			return err
		}
	}
}

// handshake sends CONNECT and waits for the broker's CONNECTED reply.
func (f *Feed) handshake(conn *websocket.Conn) error {
	connect := marshalFrame(frame{
		Command: "CONNECT",
		Headers: map[string]string{"accept-version": "1.2", "heart-beat": "0,0"},
	})
	if err := conn.WriteMessage(websocket.TextMessage, connect); err != nil {
		return fmt.Errorf("handshake write: %w", err)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("handshake read: %w", err)
	}
	reply, err := parseFrame(raw)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if reply.Command != "CONNECTED" {
		return fmt.Errorf("handshake: broker replied %s", reply.Command)
	}
	return nil
}

// handleFrame processes one inbound frame. MESSAGE frames carry state;
// heartbeats are ignored; an ERROR frame ends the session.
func (f *Feed) handleFrame(fr frame) error {
	switch fr.Command {
	case "MESSAGE":
		f.handleStatus(fr.Body)
		return nil
	case "ERROR":
		return fmt.Errorf("broker error frame: %s", fr.Headers["message"])
	default:
		return nil
	}
}

func (f *Feed) handleStatus(body []byte) {
	var msg telemetry.StatusMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		f.log.Printf("drop malformed status payload: %v", err)
		return
	}

	newState := store.ParseBehavioralState(msg.Status)
	old := f.store.State()
	f.store.SetState(newState)

	if f.hub != nil && newState != old {
		f.hub.BroadcastJSON(map[string]any{
			"type":      "state",
			"ts":        telemetry.NowTS(),
			"from":      old,
			"to":        newState,
			"utterance": newState.Utterance(),
		})
	}
}

func (f *Feed) broadcastHealth(up bool) {
	if f.hub == nil {
		return
	}
	f.hub.BroadcastJSON(map[string]any{
		"type":      "state_feed",
		"ts":        telemetry.NowTS(),
		"connected": up,
	})
}
