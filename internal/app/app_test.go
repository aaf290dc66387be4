package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doyun-lab/robotview/internal/config"
	"github.com/doyun-lab/robotview/internal/eventlog"
	"github.com/doyun-lab/robotview/internal/kinematics"
	"github.com/doyun-lab/robotview/internal/liveview"
	"github.com/doyun-lab/robotview/internal/store"
)

type stubSession struct{}

func (stubSession) Close() error { return nil }

type stubEngine struct{}

func (stubEngine) Open(_ context.Context, _ string, _ liveview.SessionEvents) (liveview.Session, error) {
	return stubSession{}, nil
}

// newTestApp builds an App with an open event log and a stub media engine,
// serving its mux from an httptest server. No feeds are started.
func newTestApp(t *testing.T, signalingBody string) (*App, *httptest.Server) {
	t.Helper()

	signaling := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, signalingBody)
	}))
	t.Cleanup(signaling.Close)

	cfg := config.Default()
	cfg.Log.Path = filepath.Join(t.TempDir(), "events.db")
	cfg.Signaling.BaseURL = signaling.URL

	a := New(Options{
		Logger: log.New(io.Discard, "", 0),
		Cfg:    cfg,
		Engine: stubEngine{},
	})

	events, err := eventlog.Open(cfg.Log.Path)
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	t.Cleanup(func() { events.Close() })
	events.Capacity = cfg.Log.Capacity
	a.events = events

	mux := http.NewServeMux()
	a.routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return a, srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	_, srv := newTestApp(t, `{}`)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(body) != "ok\n" {
		t.Errorf("body = %q", body)
	}
}

func TestStateEndpoint(t *testing.T) {
	a, srv := newTestApp(t, `{}`)
	a.store.SetState(store.StateHeart)

	var resp struct {
		State     string `json:"state"`
		Utterance string `json:"utterance"`
	}
	getJSON(t, srv.URL+"/api/state", &resp)

	if resp.State != "HEART" {
		t.Errorf("state = %q", resp.State)
	}
	if resp.Utterance == "" {
		t.Error("known state should carry an utterance")
	}
}

func TestPoseEndpointNeutral(t *testing.T) {
	_, srv := newTestApp(t, `{}`)

	var resp struct {
		Pose kinematics.Pose `json:"pose"`
	}
	getJSON(t, srv.URL+"/api/pose", &resp)

	left, right := resp.Pose.LeftArm, resp.Pose.RightArm
	for name, r := range map[string]float64{
		"left base":     left.Base,
		"left shoulder": left.Shoulder,
		"left wrist1":   left.Wrist1,
		"right base":    right.Base,
		"right wrist1":  right.Wrist1,
	} {
		if r != 0 {
			t.Errorf("neutral %s rotation = %v, want 0", name, r)
		}
	}
}

func TestLogEndpoint(t *testing.T) {
	a, srv := newTestApp(t, `{}`)

	for _, cmd := range []string{"heart", "hug", "hi"} {
		if err := a.events.Append("ack", "2026-02-15T10:00:00Z", cmd); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var resp struct {
		Entries []eventlog.Entry `json:"entries"`
		Count   int              `json:"count"`
	}
	getJSON(t, srv.URL+"/api/log", &resp)

	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
	// Newest first.
	if resp.Entries[0].Command != "hi" || resp.Entries[2].Command != "heart" {
		t.Errorf("order = %s..%s, want hi..heart", resp.Entries[0].Command, resp.Entries[2].Command)
	}

	var limited struct {
		Entries []eventlog.Entry `json:"entries"`
	}
	getJSON(t, srv.URL+"/api/log?limit=2", &limited)
	if len(limited.Entries) != 2 {
		t.Errorf("limited entries = %d, want 2", len(limited.Entries))
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/log", nil)
	if _, err := http.DefaultClient.Do(req); err != nil {
		t.Fatalf("DELETE /api/log: %v", err)
	}
	getJSON(t, srv.URL+"/api/log", &resp)
	if resp.Count != 0 {
		t.Errorf("count after clear = %d, want 0", resp.Count)
	}
}

func TestVideoConnectLifecycle(t *testing.T) {
	_, srv := newTestApp(t, `{"isSuccess":true,"result":{"token":"tok"}}`)

	var status liveview.Status
	getJSON(t, srv.URL+"/api/video/status", &status)
	if status.Phase != liveview.PhaseIdle {
		t.Fatalf("initial phase = %s", status.Phase)
	}

	resp, err := http.Post(srv.URL+"/api/video/connect", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST connect: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status = %d", resp.StatusCode)
	}

	getJSON(t, srv.URL+"/api/video/status", &status)
	if status.Phase != liveview.PhaseConnected {
		t.Errorf("phase after connect = %s", status.Phase)
	}

	resp, err = http.Post(srv.URL+"/api/video/disconnect", "application/json", nil)
	if err != nil {
		t.Fatalf("POST disconnect: %v", err)
	}
	resp.Body.Close()

	getJSON(t, srv.URL+"/api/video/status", &status)
	if status.Phase != liveview.PhaseIdle {
		t.Errorf("phase after disconnect = %s", status.Phase)
	}
}

func TestVideoConnectRefused(t *testing.T) {
	_, srv := newTestApp(t, `{"isSuccess":false,"message":"channel full"}`)

	resp, err := http.Post(srv.URL+"/api/video/connect", "application/json", nil)
	if err != nil {
		t.Fatalf("POST connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	var body struct {
		OK    bool            `json:"ok"`
		Error string          `json:"error"`
		Video liveview.Status `json:"video"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.OK {
		t.Error("ok should be false")
	}
	if body.Video.Phase != liveview.PhaseError {
		t.Errorf("phase = %s, want ERROR", body.Video.Phase)
	}
	if body.Video.Loading {
		t.Error("loading must clear after a refused connect")
	}
}

func TestVideoEndpointsRejectGetForMutations(t *testing.T) {
	_, srv := newTestApp(t, `{}`)

	for _, path := range []string{"/api/video/connect", "/api/video/disconnect"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want 405", path, resp.StatusCode)
		}
	}
}
