package ctl

import (
	"fmt"
)

type videoStatusJSON struct {
	Phase      string `json:"phase"`
	Loading    bool   `json:"loading"`
	Error      string `json:"error"`
	Subscribed bool   `json:"subscribed"`
	Stream     struct {
		ID       string `json:"id"`
		Kind     string `json:"kind"`
		MimeType string `json:"mime_type"`
	} `json:"stream"`
}

// VideoConnect asks the daemon to open the live-view session. With empty
// arguments the daemon uses its configured channel and identity.
func VideoConnect(baseURL, channelID string) error {
	var body any
	if channelID != "" {
		body = map[string]string{"channel_id": channelID}
	}

	var resp struct {
		OK    bool            `json:"ok"`
		Error string          `json:"error"`
		Video videoStatusJSON `json:"video"`
	}
	if err := postJSON(baseURL, "/api/video/connect", body, &resp); err != nil {
		return err
	}
	printVideoStatus(resp.Video)
	return nil
}

// VideoDisconnect tears the live-view session down.
func VideoDisconnect(baseURL string) error {
	var resp struct {
		Video videoStatusJSON `json:"video"`
	}
	if err := postJSON(baseURL, "/api/video/disconnect", nil, &resp); err != nil {
		return err
	}
	printVideoStatus(resp.Video)
	return nil
}

// VideoStatus prints the current live-view session state.
func VideoStatus(baseURL string) error {
	var v videoStatusJSON
	if err := getJSON(baseURL, "/api/video/status", &v); err != nil {
		return err
	}
	printVideoStatus(v)
	return nil
}

func printVideoStatus(v videoStatusJSON) {
	fmt.Println()
	fmt.Printf("  %s %s\n", colorize(dim, "Video:"), colorize(linkColor(v.Phase), v.Phase))
	if v.Error != "" {
		fmt.Printf("  %s %s\n", colorize(dim, "Error:"), colorize(red, v.Error))
	}
	if v.Subscribed {
		fmt.Printf("  %s %s (%s, %s)\n", colorize(dim, "Stream:"),
			v.Stream.ID, v.Stream.Kind, v.Stream.MimeType)
	}
	fmt.Println()
}
