package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor sends intents through the admin API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:    baseURL,
		AdminKey:   adminKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// TogglePause flips the pause state and returns the new one.
func (a *Actor) TogglePause(ctx context.Context) (bool, error) {
	var out struct {
		Paused bool `json:"paused"`
	}
	err := a.post(ctx, "/api/v1/pause", nil, &out)
	return out.Paused, err
}

// SetSpeed selects a speed preset and returns the one applied.
func (a *Actor) SetSpeed(ctx context.Context, index int) (int, error) {
	var out struct {
		SpeedIndex int `json:"speed_index"`
	}
	err := a.post(ctx, "/api/v1/speed", map[string]int{"index": index}, &out)
	return out.SpeedIndex, err
}

// Quit asks the simulation to shut down.
func (a *Actor) Quit(ctx context.Context) error {
	return a.post(ctx, "/api/v1/quit", nil, nil)
}

// Apply carries out a decision.
func (a *Actor) Apply(ctx context.Context, d Decision) error {
	switch d.Action {
	case ActionPause:
		_, err := a.TogglePause(ctx)
		return err
	case ActionSlowDown:
		_, err := a.SetSpeed(ctx, d.Speed)
		return err
	}
	return nil
}

func (a *Actor) post(ctx context.Context, path string, payload, target any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
