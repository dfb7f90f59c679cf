package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// IndexVersion tracks the current mapping schema version. Increment
// whenever index mappings change so the reindex command knows to
// rebuild.
// v1: initial notes/users mappings
const IndexVersion = 1

// CheckIndexVersion reports whether the notes index is missing or
// carries an older mapping version and therefore needs reindexing.
func (c *Client) CheckIndexVersion(ctx context.Context) (bool, error) {
	res, err := c.es.Indices.GetSettings(
		c.es.Indices.GetSettings.WithIndex(IndexNotes),
		c.es.Indices.GetSettings.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to get index settings: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return true, nil
		}
		return false, fmt.Errorf("error getting index settings: %s", res.Status())
	}

	var settingsResp map[string]struct {
		Settings struct {
			Index struct {
				Custom struct {
					Version int `json:"version"`
				} `json:"custom"`
			} `json:"index"`
		} `json:"settings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&settingsResp); err != nil {
		// Unparseable settings: treat as stale.
		return true, nil
	}

	entry, ok := settingsResp[IndexNotes]
	if !ok {
		return true, nil
	}
	return entry.Settings.Index.Custom.Version < IndexVersion, nil
}

// UpdateIndexVersion stamps the current schema version into the index
// settings after a successful (re)build.
func (c *Client) UpdateIndexVersion(ctx context.Context, indexName string) error {
	updateBody := map[string]interface{}{
		"settings": map[string]interface{}{
			"index": map[string]interface{}{
				"custom": map[string]interface{}{
					"version": IndexVersion,
				},
			},
		},
	}

	bodyJSON, err := json.Marshal(updateBody)
	if err != nil {
		return fmt.Errorf("failed to marshal update body: %w", err)
	}

	res, err := c.es.Indices.PutSettings(
		bytes.NewReader(bodyJSON),
		c.es.Indices.PutSettings.WithIndex(indexName),
		c.es.Indices.PutSettings.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to update index settings: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error updating index settings: %s", res.Status())
	}
	return nil
}

// DeleteIndex deletes an index. Used by the reindex command before a
// full rebuild.
func (c *Client) DeleteIndex(ctx context.Context, indexName string) error {
	res, err := c.es.Indices.Delete(
		[]string{indexName},
		c.es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting index: %s", res.Status())
	}
	return nil
}
