package statefeed

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/doyun-lab/robotview/internal/config"
	"github.com/doyun-lab/robotview/internal/store"
)

func TestFrameRoundTrip(t *testing.T) {
	in := frame{
		Command: "MESSAGE",
		Headers: map[string]string{"destination": "/sub/robot/1", "subscription": "sub-0"},
		Body:    []byte(`{"id":1,"status":"heart"}`),
	}

	out, err := parseFrame(marshalFrame(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Command != in.Command {
		t.Errorf("command = %q", out.Command)
	}
	if out.Headers["destination"] != "/sub/robot/1" {
		t.Errorf("headers = %v", out.Headers)
	}
	if string(out.Body) != string(in.Body) {
		t.Errorf("body = %q", out.Body)
	}
}

func TestParseFrameHeartbeat(t *testing.T) {
	f, err := parseFrame([]byte("\n"))
	if err != nil {
		t.Fatalf("heartbeat should parse, got %v", err)
	}
	if f.Command != "" {
		t.Errorf("heartbeat command = %q, want empty", f.Command)
	}
}

func TestParseFrameMalformed(t *testing.T) {
	if _, err := parseFrame([]byte("MESSAGE\nno-terminator")); err == nil {
		t.Error("expected an error for a frame without a header terminator")
	}
}

func newTestFeed(st *store.Store) *Feed {
	return New(Options{
		Cfg:    config.Default().State,
		Store:  st,
		Logger: log.New(io.Discard, "", 0),
	})
}

func TestHandleStatus(t *testing.T) {
	cases := []struct {
		name string
		body string
		want store.BehavioralState
	}{
		{"known lowercase", `{"id":1,"status":"heart"}`, store.StateHeart},
		{"known uppercase", `{"id":1,"status":"HUG"}`, store.StateHug},
		{"unknown code", `{"id":1,"status":"dance"}`, store.StateUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := store.New()
			newTestFeed(st).handleStatus([]byte(c.body))
			if got := st.State(); got != c.want {
				t.Errorf("state = %s, want %s", got, c.want)
			}
		})
	}
}

func TestHandleStatusMalformedSkipped(t *testing.T) {
	st := store.New()
	st.SetState(store.StateHeart)

	newTestFeed(st).handleStatus([]byte(`{broken`))

	if got := st.State(); got != store.StateHeart {
		t.Errorf("malformed payload must not change state, got %s", got)
	}
}

func TestHandleFrameError(t *testing.T) {
	f := newTestFeed(store.New())
	err := f.handleFrame(frame{Command: "ERROR", Headers: map[string]string{"message": "nope"}})
	if err == nil {
		t.Error("ERROR frame should end the session")
	}
}

// stompServer is a minimal broker: it answers the handshake, accepts one
// subscription, then delivers the given status bodies.
func stompServer(t *testing.T, bodies ...string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// CONNECT -> CONNECTED
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		connected := marshalFrame(frame{Command: "CONNECTED", Headers: map[string]string{"version": "1.2"}})
		if err := conn.WriteMessage(websocket.TextMessage, connected); err != nil {
			return
		}

		// SUBSCRIBE
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		for _, body := range bodies {
			msg := marshalFrame(frame{
				Command: "MESSAGE",
				Headers: map[string]string{"destination": "/sub/robot/1", "subscription": "sub-0"},
				Body:    []byte(body),
			})
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}

		// Hold the session open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRunAgainstBroker(t *testing.T) {
	srv := stompServer(t, `{"id":1,"status":"warmup"}`, `{"id":1,"status":"heart"}`)
	defer srv.Close()

	st := store.New()
	cfg := config.Default().State
	cfg.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.ReconnectSeconds = 1

	f := New(Options{Cfg: cfg, Store: st, Logger: log.New(io.Discard, "", 0)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool { return st.State() == store.StateHeart })
	waitFor(t, 2*time.Second, func() bool { return st.Snapshot().StateFeed })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if st.Snapshot().StateFeed {
		t.Error("health flag should drop after shutdown")
	}
}
