package app

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/doyun-lab/robotview/internal/kinematics"
	"github.com/doyun-lab/robotview/internal/store"
)

func (a *App) routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/pose", a.handlePose)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/log", a.handleLog)
	mux.HandleFunc("/api/video/connect", a.handleVideoConnect)
	mux.HandleFunc("/api/video/disconnect", a.handleVideoDisconnect)
	mux.HandleFunc("/api/video/status", a.handleVideoStatus)
	mux.Handle("/ws", a.hub.Handler())
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	snap := a.store.Snapshot()

	checks := map[string]any{}
	allOK := true

	brokerOK := snap.Broker == store.ConnConnected
	checks["broker"] = map[string]any{"ok": brokerOK, "status": snap.Broker}
	if !brokerOK {
		allOK = false
	}

	checks["state_feed"] = map[string]any{"ok": snap.StateFeed}
	if !snap.StateFeed {
		allOK = false
	}

	// The log database's directory must stay writable or appends will fail.
	logDir := filepath.Dir(a.cfg.Log.Path)
	tmpPath := filepath.Join(logDir, ".healthcheck")
	if err := os.WriteFile(tmpPath, []byte("ok"), 0o644); err != nil {
		checks["log_storage"] = map[string]any{"ok": false, "error": err.Error()}
		allOK = false
	} else {
		os.Remove(tmpPath)
		checks["log_storage"] = map[string]any{"ok": true, "path": a.cfg.Log.Path}
	}

	videoPhase := a.live.Status().Phase
	checks["video"] = map[string]any{
		"ok":    videoPhase != "ERROR",
		"phase": videoPhase,
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := a.store.Snapshot()

	resp := map[string]any{
		"name":                 "robotview",
		"uptime_seconds":       int64(time.Since(a.startedAt).Seconds()),
		"broker":               snap.Broker,
		"state_feed_connected": snap.StateFeed,
		"state":                snap.State,
		"left_connected":       snap.LeftArm.Connected,
		"right_connected":      snap.RightArm.Connected,
		"video":                a.live.Status(),
		"log_path":             a.cfg.Log.Path,
	}
	if du := diskUsage(filepath.Dir(a.cfg.Log.Path)); du != nil {
		resp["disk"] = du
	}

	writeJSON(w, resp)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"version":    Version,
		"go_version": runtime.Version(),
		"built_at":   BuiltAt,
	})
}

// handleConfig exposes the running configuration; the broker password is
// excluded by its JSON tag.
func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.cfg)
}

func (a *App) handlePose(w http.ResponseWriter, _ *http.Request) {
	snap := a.store.Snapshot()
	writeJSON(w, map[string]any{
		"pose":     kinematics.PoseFor(snap),
		"snapshot": snap,
	})
}

func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	state := a.store.State()
	writeJSON(w, map[string]any{
		"state":     state,
		"utterance": state.Utterance(),
	})
}

// handleLog serves the durable event log. GET returns entries newest-first
// (the display order); DELETE clears the log.
func (a *App) handleLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := a.events.Read()

		// Stored oldest-first; displayed newest-first.
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}

		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n < len(entries) {
				entries = entries[:n]
			}
		}
		writeJSON(w, map[string]any{
			"entries": entries,
			"count":   len(entries),
		})

	case http.MethodDelete:
		if err := a.events.Clear(); err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "message": "log cleared"})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (a *App) handleVideoConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Identity defaults to the configured console identity; an explicit
	// body can join a different channel.
	req := struct {
		ChannelID     string `json:"channel_id"`
		ParticipantID string `json:"participant_id"`
		Role          string `json:"role"`
	}{
		ChannelID:     a.cfg.Signaling.ChannelID,
		ParticipantID: a.cfg.Signaling.ParticipantID,
		Role:          a.cfg.Signaling.Role,
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := a.live.Connect(r.Context(), req.ChannelID, req.ParticipantID, req.Role); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": err.Error(),
			"video": a.live.Status(),
		})
		return
	}

	writeJSON(w, map[string]any{"ok": true, "video": a.live.Status()})
}

func (a *App) handleVideoDisconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.live.Disconnect()
	writeJSON(w, map[string]any{"ok": true, "video": a.live.Status()})
}

func (a *App) handleVideoStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, a.live.Status())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":    false,
		"error": msg,
	})
}
