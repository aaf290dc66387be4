package liveview

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
)

// iceGatherTimeout bounds how long the engine waits for ICE candidate
// gathering before publishing the SDP (vanilla ICE: all candidates up
// front, one signaling round-trip).
const iceGatherTimeout = 15 * time.Second

// connectTimeout bounds how long the engine waits for the peer connection
// to reach the Connected state after the answer is applied.
const connectTimeout = 15 * time.Second

// Compile-time interface check.
var _ Engine = (*WebRTCEngine)(nil)

// WebRTCEngine opens recvonly video sessions over WebRTC. The signaling
// token is the media server's session URL: the engine POSTs its SDP offer
// there and applies the returned answer.
type WebRTCEngine struct {
	Logger *log.Logger
	Client *http.Client

	// ICEServers configures STUN/TURN; empty means host candidates only.
	ICEServers []webrtc.ICEServer
}

// NewWebRTCEngine creates an engine with a bounded signaling exchange
// timeout.
func NewWebRTCEngine(logger *log.Logger) *WebRTCEngine {
	return &WebRTCEngine{
		Logger: logger,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Open negotiates one peer connection and returns it as a Session. The
// first remote track to arrive becomes the subscriber; later tracks
// replace it through events.StreamCreated.
func (e *WebRTCEngine) Open(ctx context.Context, token string, events SessionEvents) (Session, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: e.ICEServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("add video transceiver: %w", err)
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		e.Logger.Printf("remote track %s (%s)", track.ID(), track.Codec().MimeType)
		events.StreamCreated(newTrackSubscriber(track, events.StreamDestroyed))
	})

	connected := make(chan struct{})
	var connectedOnce sync.Once
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		e.Logger.Printf("peer connection state: %s", state)
		switch state {
		case webrtc.PeerConnectionStateConnected:
			connectedOnce.Do(func() { close(connected) })
		case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
			if events.Exception != nil {
				events.Exception(fmt.Errorf("peer connection %s", state))
			}
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create offer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-time.After(iceGatherTimeout):
		pc.Close()
		return nil, fmt.Errorf("ICE gathering timed out after %s", iceGatherTimeout)
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}

	answer, err := e.exchangeSDP(ctx, token, pc.LocalDescription().SDP)
	if err != nil {
		pc.Close()
		return nil, err
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	select {
	case <-connected:
	case <-time.After(connectTimeout):
		pc.Close()
		return nil, fmt.Errorf("session did not connect within %s", connectTimeout)
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}

	return &webrtcSession{pc: pc}, nil
}

// exchangeSDP posts the offer to the token URL and returns the answer.
func (e *WebRTCEngine) exchangeSDP(ctx context.Context, url, offerSDP string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(offerSDP))
	if err != nil {
		return "", fmt.Errorf("build SDP exchange: %w", err)
	}
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("SDP exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("SDP exchange: HTTP %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("SDP exchange read: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("SDP exchange: empty answer")
	}
	return string(body), nil
}

type webrtcSession struct {
	pc *webrtc.PeerConnection
}

func (s *webrtcSession) Close() error {
	return s.pc.Close()
}

// trackSubscriber drains one remote track and copies its payload to the
// attached render target. Draining starts immediately so RTCP feedback
// keeps flowing even before a target is attached; payload read without a
// target is dropped.
type trackSubscriber struct {
	track *webrtc.TrackRemote

	mu     sync.Mutex
	target io.Writer
	closed bool
}

func newTrackSubscriber(track *webrtc.TrackRemote, destroyed func(string)) *trackSubscriber {
	s := &trackSubscriber{track: track}
	go s.drain(destroyed)
	return s
}

func (s *trackSubscriber) Info() StreamInfo {
	return StreamInfo{
		ID:       s.track.ID(),
		Kind:     s.track.Kind().String(),
		MimeType: s.track.Codec().MimeType,
	}
}

func (s *trackSubscriber) Attach(target io.Writer) {
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

func (s *trackSubscriber) Close() error {
	s.mu.Lock()
	s.closed = true
	s.target = nil
	s.mu.Unlock()
	return nil
}

func (s *trackSubscriber) drain(destroyed func(string)) {
	buf := make([]byte, 1500)
	for {
		n, _, err := s.track.Read(buf)
		if err != nil {
			s.mu.Lock()
			wasClosed := s.closed
			s.mu.Unlock()
			if !wasClosed && destroyed != nil {
				destroyed(s.track.ID())
			}
			return
		}

		s.mu.Lock()
		target := s.target
		s.mu.Unlock()
		if target != nil {
			if _, err := target.Write(buf[:n]); err != nil {
				// A dead render target is not a stream failure; detach it.
				s.mu.Lock()
				if s.target == target {
					s.target = nil
				}
				s.mu.Unlock()
			}
		}
	}
}
