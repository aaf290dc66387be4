// Package liveview manages the real-time video session: credential
// acquisition, session connect, first-stream subscription, and clean,
// idempotent teardown.
//
// The lifecycle is an explicit state machine:
//
//	IDLE → CONNECTING → CONNECTED → DISCONNECTING → IDLE
//	        CONNECTING|CONNECTED → ERROR → (Connect) → CONNECTING
//
// Connect is a no-op outside IDLE and ERROR, which makes re-entrant calls
// (a double-clicked button, a remounting consumer) harmless: at most one
// underlying session exists at a time.
package liveview

import (
	"context"
	"io"
	"log"
	"sync"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseConnecting    Phase = "CONNECTING"
	PhaseConnected     Phase = "CONNECTED"
	PhaseDisconnecting Phase = "DISCONNECTING"
	PhaseError         Phase = "ERROR"
)

// StreamInfo describes the remote stream a subscriber is consuming.
type StreamInfo struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	MimeType string `json:"mime_type"`
}

// Subscriber is the handle to the one remote stream this session consumes.
type Subscriber interface {
	Info() StreamInfo
	// Attach binds a render target; media flows into it until the stream
	// ends or the subscriber is closed. Re-attaching replaces the target.
	Attach(target io.Writer)
	Close() error
}

// SessionEvents are the engine's callbacks into the manager. All three are
// optional on the engine side but always non-nil when the manager opens a
// session.
type SessionEvents struct {
	// StreamCreated fires when a remote stream becomes available. Repeated
	// calls mean stream replacement, not accumulation.
	StreamCreated func(Subscriber)
	// StreamDestroyed fires when the remote stream goes away while the
	// session itself stays up.
	StreamDestroyed func(streamID string)
	// Exception reports a non-fatal session fault.
	Exception func(error)
}

// Session is an open media session.
type Session interface {
	Close() error
}

// Engine opens media sessions from a signaling token. The production engine
// is WebRTC; tests substitute an in-process fake.
type Engine interface {
	Open(ctx context.Context, token string, events SessionEvents) (Session, error)
}

// Status is a snapshot of the manager for status endpoints.
type Status struct {
	Phase      Phase      `json:"phase"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error,omitempty"`
	Subscribed bool       `json:"subscribed"`
	Stream     StreamInfo `json:"stream,omitzero"`
}

// Manager drives the live-view session lifecycle.
type Manager struct {
	signaling *Signaling
	engine    Engine
	log       *log.Logger

	mu         sync.Mutex
	phase      Phase
	errMsg     string
	session    Session
	subscriber Subscriber
	target     io.Writer

	// gen identifies the current connect attempt. Disconnect bumps it, so a
	// Connect that was pending across a teardown sees its generation go
	// stale and discards the session it opened instead of committing it.
	gen uint64
}

// NewManager creates an idle manager.
func NewManager(signaling *Signaling, engine Engine, logger *log.Logger) *Manager {
	return &Manager{
		signaling: signaling,
		engine:    engine,
		log:       logger,
		phase:     PhaseIdle,
	}
}

// Connect acquires a credential and opens the session. While another
// connect is pending or a session is up, the call is a no-op. A failed
// attempt parks the manager in ERROR; it does not retry on its own — the
// caller decides when to try again, so a broken signaling server is not
// hammered.
func (m *Manager) Connect(ctx context.Context, channelID, participantID, role string) error {
	m.mu.Lock()
	if m.phase != PhaseIdle && m.phase != PhaseError {
		m.mu.Unlock()
		return nil
	}
	m.phase = PhaseConnecting
	m.errMsg = ""
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	token, err := m.signaling.CreateConnection(ctx, channelID, participantID, role)
	if err != nil {
		m.fail(gen, err)
		return err
	}

	session, err := m.engine.Open(ctx, token, SessionEvents{
		StreamCreated:   m.onStreamCreated,
		StreamDestroyed: m.onStreamDestroyed,
		Exception:       m.onException,
	})
	if err != nil {
		m.fail(gen, err)
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		// Disconnect ran while this attempt was pending. The operator's
		// teardown wins: discard the session instead of resurrecting it.
		m.mu.Unlock()
		_ = session.Close()
		m.log.Printf("live view connect to channel %s superseded by disconnect", channelID)
		return nil
	}
	m.session = session
	m.phase = PhaseConnected
	m.mu.Unlock()

	m.log.Printf("live view connected to channel %s", channelID)
	return nil
}

// Attach binds the render target. If a subscriber already exists it is
// bound immediately; otherwise the target is remembered and bound when a
// stream arrives.
func (m *Manager) Attach(target io.Writer) {
	m.mu.Lock()
	m.target = target
	sub := m.subscriber
	m.mu.Unlock()

	if sub != nil && target != nil {
		sub.Attach(target)
	}
}

// Disconnect tears the session down. Teardown errors are swallowed;
// finalization always completes, leaving the manager reusable. Calling
// Disconnect on a never-connected manager is a no-op.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.phase == PhaseIdle {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseDisconnecting
	m.gen++
	session := m.session
	sub := m.subscriber
	m.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			m.log.Printf("live view subscriber close: %v", err)
		}
	}
	if session != nil {
		if err := session.Close(); err != nil {
			m.log.Printf("live view session close: %v", err)
		}
	}

	m.mu.Lock()
	m.session = nil
	m.subscriber = nil
	m.errMsg = ""
	m.phase = PhaseIdle
	m.mu.Unlock()
}

// Status returns a snapshot of the session state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Phase:      m.phase,
		Loading:    m.phase == PhaseConnecting,
		Error:      m.errMsg,
		Subscribed: m.subscriber != nil,
	}
	if m.subscriber != nil {
		s.Stream = m.subscriber.Info()
	}
	return s
}

func (m *Manager) fail(gen uint64, err error) {
	m.log.Printf("live view connect failed: %v", err)
	m.mu.Lock()
	defer m.mu.Unlock()
	// A stale attempt was already finalized by Disconnect; leave its state
	// alone.
	if m.gen != gen {
		return
	}
	m.phase = PhaseError
	m.errMsg = err.Error()
	m.session = nil
}

func (m *Manager) onStreamCreated(sub Subscriber) {
	m.mu.Lock()
	old := m.subscriber
	m.subscriber = sub
	target := m.target
	m.mu.Unlock()

	// Replacement, not accumulation: the newest stream wins.
	if old != nil {
		_ = old.Close()
	}
	if target != nil {
		sub.Attach(target)
	}
	m.log.Printf("live view stream available: %s", sub.Info().ID)
}

func (m *Manager) onStreamDestroyed(streamID string) {
	m.mu.Lock()
	sub := m.subscriber
	if sub != nil && sub.Info().ID == streamID {
		m.subscriber = nil
	} else {
		sub = nil
	}
	m.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
		m.log.Printf("live view stream gone: %s", streamID)
	}
}

func (m *Manager) onException(err error) {
	m.mu.Lock()
	m.errMsg = err.Error()
	m.mu.Unlock()
	m.log.Printf("live view session exception: %v", err)
}
