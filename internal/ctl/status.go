package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name               string `json:"name"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	Broker             string `json:"broker"`
	StateFeedConnected bool   `json:"state_feed_connected"`
	State              string `json:"state"`
	LeftConnected      bool   `json:"left_connected"`
	RightConnected     bool   `json:"right_connected"`
	Video              struct {
		Phase string `json:"phase"`
	} `json:"video"`
	LogPath string `json:"log_path"`
	Disk    *struct {
		AvailableBytes int64 `json:"available_bytes"`
	} `json:"disk"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string) error {
	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)

	fmt.Println()
	fmt.Println(header("  ROBOTVIEW STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-14s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-14s %s\n", colorize(dim, "State:"), colorize(stateColor(s.State), s.State))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Broker:"), colorize(linkColor(s.Broker), s.Broker))
	fmt.Printf("  %-14s %s\n", colorize(dim, "State feed:"), onOff(s.StateFeedConnected))
	fmt.Printf("  %-14s left %s, right %s\n", colorize(dim, "Arms:"),
		onOff(s.LeftConnected), onOff(s.RightConnected))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Video:"), colorize(linkColor(s.Video.Phase), s.Video.Phase))
	fmt.Printf("  %-14s %s\n", colorize(dim, "Log:"), s.LogPath)
	if s.Disk != nil {
		fmt.Printf("  %-14s %s free\n", colorize(dim, "Disk:"), formatBytes(s.Disk.AvailableBytes))
	}
	fmt.Printf("  %-14s %s\n", colorize(dim, "Host:"), strings.TrimRight(baseURL, "/"))
	fmt.Println()

	return nil
}
