// Package remote holds the field client's adapters to the server: the report
// store HTTP API and the blob store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/syncer"
)

// Client talks to the report store API. Implements syncer.ReportCreator.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthURL is the probe target for the network monitor.
func (c *Client) HealthURL() string {
	return c.baseURL + "/health"
}

type createReportRequest struct {
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	CityID      *uint    `json:"city_id,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

type createReportResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID uint `json:"id"`
	} `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreateReport delivers a queued report whose photos are all uploaded.
// The local id travels in the Idempotency-Key header.
func (c *Client) CreateReport(ctx context.Context, report *models.QueuedReport) (uint, error) {
	photos := make([]string, 0, len(report.Photos))
	for _, p := range report.Photos {
		if !p.Uploaded() {
			return 0, fmt.Errorf("report %s still has un-uploaded photos", report.LocalID)
		}
		photos = append(photos, p.URL)
	}

	body, err := json.Marshal(createReportRequest{
		Category:    report.Category,
		Description: report.Description,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		CityID:      report.CityID,
		Photos:      photos,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reports", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", report.LocalID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &syncer.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		var parsed createReportResponse
		message := string(raw)
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
			message = parsed.Error
		}
		return 0, &syncer.RemoteError{StatusCode: resp.StatusCode, Message: message}
	}

	var parsed createReportResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("decode create response: %w", err)
	}
	return parsed.Data.ID, nil
}
