// Package app wires together the three inbound channels (joint telemetry,
// behavioral state, live video), the shared store, the durable event log,
// and the console-facing HTTP/WebSocket surface. It owns the daemon's
// lifecycle.
package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/doyun-lab/robotview/internal/config"
	"github.com/doyun-lab/robotview/internal/eventlog"
	"github.com/doyun-lab/robotview/internal/kinematics"
	"github.com/doyun-lab/robotview/internal/liveview"
	"github.com/doyun-lab/robotview/internal/mqttfeed"
	"github.com/doyun-lab/robotview/internal/statefeed"
	"github.com/doyun-lab/robotview/internal/store"
	"github.com/doyun-lab/robotview/internal/telemetry"
	"github.com/doyun-lab/robotview/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger *log.Logger
	Cfg    config.Config
	Bind   string

	// Engine overrides the live-view media engine; nil selects WebRTC.
	Engine liveview.Engine
}

// App is the top-level daemon process. It manages the HTTP server, the
// console hub, and the three feed channels.
type App struct {
	log    *log.Logger
	cfg    config.Config
	bind   string
	server *http.Server

	startedAt time.Time

	store     *store.Store
	events    *eventlog.Log
	hub       *ws.Hub
	telemetry *mqttfeed.Feed
	statefeed *statefeed.Feed
	live      *liveview.Manager
}

// New creates an App. Call Run to open the event log and start serving.
func New(opts Options) *App {
	a := &App{
		log:       opts.Logger,
		cfg:       opts.Cfg,
		bind:      opts.Bind,
		startedAt: time.Now(),
		store:     store.New(),
		hub:       ws.NewHub(),
	}
	a.hub.Snapshot = a.welcomePayload

	engine := opts.Engine
	if engine == nil {
		engine = liveview.NewWebRTCEngine(opts.Logger)
	}
	a.live = liveview.NewManager(
		liveview.NewSignaling(opts.Cfg.Signaling.BaseURL),
		engine,
		opts.Logger,
	)
	return a
}

// Run opens the event log, starts the feeds and the HTTP server, and blocks
// until the context is cancelled or the server fails. Shutdown order is
// feeds first, then the server, then the log, so no feed writes to a closed
// database.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" && a.cfg.Server.Bind != "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	events, err := eventlog.Open(a.cfg.Log.Path)
	if err != nil {
		return err
	}
	events.Capacity = a.cfg.Log.Capacity
	a.events = events
	defer events.Close()

	a.telemetry = mqttfeed.New(mqttfeed.Options{
		Cfg:    a.cfg.Broker,
		Store:  a.store,
		Log:    events,
		Logger: a.log,
		Hub:    a.hub,
	})
	a.statefeed = statefeed.New(statefeed.Options{
		Cfg:    a.cfg.State,
		Store:  a.store,
		Logger: a.log,
		Hub:    a.hub,
	})

	mux := http.NewServeMux()
	a.routes(mux)

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Printf("listening on http://%s", bind)

	go a.hub.Run(ctx)
	a.telemetry.Connect()
	go a.statefeed.Run(ctx)
	go a.poseLoop(ctx)
	go a.heartbeatLoop(ctx)

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		a.telemetry.Close()
		a.live.Disconnect()
		_ = a.server.Shutdown(context.Background())
	}()

	err = a.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// poseLoop turns the store's raw joint angles into renderer rotations at a
// fixed cadence. Frames are broadcast only when something changed, so an
// idle robot does not flood the consoles.
func (a *App) poseLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Pose.IntervalMillis) * time.Millisecond
	t := time.NewTicker(interval)
	defer t.Stop()

	var last store.Snapshot
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap := a.store.Snapshot()
			if snap == last {
				continue
			}
			last = snap
			a.hub.BroadcastJSON(map[string]any{
				"type": "pose",
				"ts":   telemetry.NowTS(),
				"pose": kinematics.PoseFor(snap),
			})
		}
	}
}

// heartbeatLoop sends a periodic heartbeat so consoles can detect daemon
// connectivity and track feed health without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap := a.store.Snapshot()
			a.hub.BroadcastJSON(map[string]any{
				"type":                 "heartbeat",
				"ts":                   telemetry.NowTS(),
				"uptime_seconds":       int64(time.Since(a.startedAt).Seconds()),
				"broker":               snap.Broker,
				"state_feed_connected": snap.StateFeed,
				"video_phase":          a.live.Status().Phase,
			})
		}
	}
}

// welcomePayload is sent to every console right after it connects, so it
// can render the current picture before the first broadcast arrives.
func (a *App) welcomePayload() any {
	snap := a.store.Snapshot()
	return map[string]any{
		"type":      "welcome",
		"ts":        telemetry.NowTS(),
		"snapshot":  snap,
		"pose":      kinematics.PoseFor(snap),
		"state":     snap.State,
		"utterance": snap.State.Utterance(),
		"video":     a.live.Status(),
	}
}
