// Robotviewd is the telemetry bridge daemon for the robot live-view console.
//
// It loads configuration, connects the MQTT joint-telemetry channel, the
// STOMP behavioral-state feed, and the live-view signaling client, and
// serves the reconciled picture to render clients over HTTP and WebSocket.
// Shutdown is handled gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/doyun-lab/robotview/internal/app"
	"github.com/doyun-lab/robotview/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/robotview/robotview.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// A missing file is fine for local runs; anything else is fatal.
		if !os.IsNotExist(err) {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = config.Default()
	}

	logger := log.New(os.Stdout, "robotviewd ", log.LstdFlags|log.Lmicroseconds)

	a := app.New(app.Options{
		Logger: logger,
		Cfg:    cfg,
		Bind:   *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Fatalf("robotviewd failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
