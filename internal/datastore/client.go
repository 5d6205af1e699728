package datastore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DatasetteClient implements Store against the datasette-insert API.
type DatasetteClient struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

// NewDatasetteClient creates a new DatasetteClient instance
func NewDatasetteClient(baseURL, apiToken string) *DatasetteClient {
	return &DatasetteClient{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Connect validates the base URL.
func (c *DatasetteClient) Connect() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.baseURL)
	}
	return nil
}

// CreateTable is a no-op; the insert API creates tables on first write.
func (c *DatasetteClient) CreateTable(string) error {
	return nil
}

// BatchInsert posts records to /-/insert/{database}/{table}, upserting on id.
func (c *DatasetteClient) BatchInsert(database string, table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}
	if database == "" {
		return errors.New("database name is required")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, "-/insert", database, table)
	u.RawQuery = url.Values{"pk": {"id"}, "upsert": {"1"}}.Encode()

	jsonData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("API error (status %d): %v", resp.StatusCode, errResp)
	}

	return nil
}

// Close is a no-op for the HTTP client
func (c *DatasetteClient) Close() error {
	return nil
}
