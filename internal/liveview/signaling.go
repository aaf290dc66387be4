package liveview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Signaling requests short-lived session credentials from the backend.
type Signaling struct {
	BaseURL string
	Client  *http.Client
}

// NewSignaling creates a signaling client with a bounded request timeout.
func NewSignaling(baseURL string) *Signaling {
	return &Signaling{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// connectionRequest is the credential request body.
type connectionRequest struct {
	ParticipantID string `json:"participantId"`
	Role          string `json:"role"`
}

// connectionResponse is the credential endpoint's reply envelope.
type connectionResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
	Result    struct {
		Token string `json:"token"`
	} `json:"result"`
}

// CreateConnection requests an access token for joining a channel. Any
// failure mode — transport error, non-2xx status, malformed body, refusal,
// missing token — comes back as an error; there is no retry here.
func (s *Signaling) CreateConnection(ctx context.Context, channelID, participantID, role string) (string, error) {
	body, err := json.Marshal(connectionRequest{ParticipantID: participantID, Role: role})
	if err != nil {
		return "", fmt.Errorf("encode connection request: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/connections", s.BaseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build connection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request connection token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("connection token: HTTP %s", resp.Status)
	}

	var cr connectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode connection response: %w", err)
	}
	if !cr.IsSuccess {
		if cr.Message != "" {
			return "", fmt.Errorf("connection refused: %s", cr.Message)
		}
		return "", fmt.Errorf("connection refused by signaling server")
	}
	if cr.Result.Token == "" {
		return "", fmt.Errorf("connection response missing token")
	}
	return cr.Result.Token, nil
}
