package ctl

import (
	"fmt"
	"strings"
	"time"
)

type logEntryJSON struct {
	Kind      string `json:"kind"`
	TS        string `json:"ts"`
	Command   string `json:"command"`
	Utterance string `json:"utterance"`
}

// Logs fetches the durable event log (newest first) and prints it.
func Logs(baseURL string, limit int, jsonOut bool) error {
	path := "/api/log"
	if limit > 0 {
		path = fmt.Sprintf("/api/log?limit=%d", limit)
	}

	var resp struct {
		Entries []logEntryJSON `json:"entries"`
		Count   int            `json:"count"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  ROBOT EVENT LOG"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 52)))
	if len(resp.Entries) == 0 {
		fmt.Println(colorize(dim, "  (empty)"))
		fmt.Println()
		return nil
	}
	for _, e := range resp.Entries {
		fmt.Printf("  %s %s %-12s %s\n",
			colorize(dim, formatLogTime(e.TS)),
			colorize(kindColor(e.Kind), padRight(e.Kind, 12)),
			e.Command,
			colorize(dim, e.Utterance),
		)
	}
	fmt.Println()
	return nil
}

// ClearLogs wipes the durable event log.
func ClearLogs(baseURL string) error {
	var resp struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := deleteJSON(baseURL, "/api/log", &resp); err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

// kindColor maps an event-log kind to a terminal color.
func kindColor(kind string) string {
	if !colorEnabled() {
		return ""
	}
	switch kind {
	case "STARTED":
		return cyan
	case "IN_PROGRESS":
		return yellow
	case "COMPLETED":
		return green
	case "ERROR":
		return red
	default:
		return white
	}
}

// formatLogTime shortens a stored timestamp for display. Timestamps arrive
// as RFC3339 strings or raw controller epochs; anything unparseable is shown
// as-is, truncated.
func formatLogTime(ts string) string {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Local().Format("15:04:05")
	}
	if len(ts) > 10 {
		return ts[:10]
	}
	return padRight(ts, 10)
}
