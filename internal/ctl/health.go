package ctl

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Health fetches the component-level health checks and prints them.
func Health(baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/healthz"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var h struct {
		Healthy bool                      `json:"healthy"`
		Checks  map[string]map[string]any `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return err
	}

	fmt.Println()
	if h.Healthy {
		fmt.Printf("  %s\n", colorize(green, "healthy"))
	} else {
		fmt.Printf("  %s\n", colorize(red, "degraded"))
	}
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := h.Checks[name]
		ok, _ := check["ok"].(bool)
		mark := colorize(green, "ok")
		if !ok {
			mark = colorize(red, "fail")
		}
		detail := ""
		if msg, found := check["error"].(string); found {
			detail = colorize(dim, msg)
		} else if s, found := check["status"].(string); found {
			detail = colorize(dim, s)
		} else if p, found := check["phase"].(string); found {
			detail = colorize(dim, p)
		}
		fmt.Printf("  %-14s %-6s %s\n", colorize(dim, name+":"), mark, detail)
	}
	fmt.Println()

	if !h.Healthy {
		return fmt.Errorf("daemon is degraded")
	}
	return nil
}

// Version prints the daemon's build information.
func Version(baseURL string) error {
	var v struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
		BuiltAt   string `json:"built_at"`
	}
	if err := getJSON(baseURL, "/api/version", &v); err != nil {
		return err
	}
	fmt.Printf("robotviewd %s (%s, built %s)\n", v.Version, v.GoVersion, v.BuiltAt)
	return nil
}

// ConfigShow dumps the daemon's running configuration as indented JSON.
// Secrets are excluded by the daemon before serialization.
func ConfigShow(baseURL string) error {
	var cfg map[string]any
	if err := getJSON(baseURL, "/api/config", &cfg); err != nil {
		return err
	}
	return printJSON(cfg)
}
