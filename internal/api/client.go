package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vitalsense-data/stride.report/internal/engine"
	"github.com/vitalsense-data/stride.report/internal/httputil"
)

// Client queries a running daemon's HTTP API. Tools use it to read or
// trigger assessments without touching the database directly.
type Client struct {
	HTTPClient httputil.HTTPClient
	BaseURL    string
}

// NewClient creates a daemon API client. A nil httpClient gets a
// standard client with a 30 second timeout.
func NewClient(httpClient httputil.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second})
	}
	return &Client{
		HTTPClient: httpClient,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) decode(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// CurrentAssessment fetches the daemon's latest assessment.
func (c *Client) CurrentAssessment() (*engine.RiskAssessment, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/api/assessment")
	if err != nil {
		return nil, err
	}
	var a engine.RiskAssessment
	if err := c.decode(resp, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RunAssessment asks the daemon for a fresh assessment and returns it.
func (c *Client) RunAssessment() (*engine.RiskAssessment, error) {
	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/assessment/run", "application/json", nil)
	if err != nil {
		return nil, err
	}
	var a engine.RiskAssessment
	if err := c.decode(resp, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
