package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookPayload struct {
	Status     string    `json:"status"`
	Database   string    `json:"database"`
	Tables     int       `json:"tables"`
	Views      int       `json:"views"`
	Rows       int       `json:"rows,omitempty"`
	UploadKey  string    `json:"upload_key,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Compressed bool      `json:"compressed"`
	Encrypted  bool      `json:"encrypted"`
	Duration   string    `json:"duration"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, summary *SnapshotSummary) error {
	if n.url == "" {
		return nil
	}

	body, err := json.Marshal(buildWebhookPayload(summary))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mysql-snapshot/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-success status: %d", resp.StatusCode)
	}

	return nil
}

func buildWebhookPayload(summary *SnapshotSummary) *WebhookPayload {
	payload := &WebhookPayload{
		Database:   summary.Database,
		Tables:     summary.Tables,
		Views:      summary.Views,
		Compressed: summary.Compressed,
		Encrypted:  summary.Encrypted,
		Duration:   summary.Duration.String(),
		Timestamp:  time.Now().UTC(),
	}

	if summary.Success {
		payload.Status = "success"
		payload.Rows = summary.Rows
		payload.UploadKey = summary.UploadKey
		payload.Size = summary.Size
	} else {
		payload.Status = "failure"
		if summary.Error != nil {
			payload.Error = summary.Error.Error()
		}
	}

	return payload
}
