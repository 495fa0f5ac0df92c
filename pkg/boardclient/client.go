/**
 * @description
 * This package provides a client for the CRM board API (a single GraphQL-style
 * endpoint). It reads column values off a board item and writes hyperlink or
 * status values back. Writes are fire-and-forget: the service checks the HTTP
 * status but does not consume the mutation result.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, strings, time: Standard Go libraries.
 * - github.com/boardpay/billing-service/internal/domain: ColumnValue and error sentinels.
 */
package boardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/boardpay/billing-service/internal/domain"
)

// Client is a client for the CRM board API.
type Client struct {
	APIURL     string
	Token      string
	httpClient *http.Client
}

// NewClient creates a new board API client.
func NewClient(apiURL, token string) *Client {
	return &Client{
		APIURL: apiURL,
		Token:  token,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

// query posts one GraphQL document with variables and returns the decoded
// data object.
func (c *Client) query(ctx context.Context, document string, variables map[string]interface{}) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"query":     document,
		"variables": variables,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.APIURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create board request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reach board API: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: board API request failed with status %d: %s", domain.ErrIntegration, resp.StatusCode, string(bodyBytes))
	}

	var decoded struct {
		Data   map[string]interface{} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode board API response: %v", domain.ErrIntegration, err)
	}
	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("%w: board API returned errors: %s", domain.ErrIntegration, strings.Join(messages, "; "))
	}
	return decoded.Data, nil
}

// GetColumnValues reads the requested columns of one item and returns them
// keyed by column id.
func (c *Client) GetColumnValues(ctx context.Context, itemID string, columnIDs []string) (map[string]domain.ColumnValue, error) {
	document := `query ($itemID: [ID!], $columnIDs: [String!]) {
		items(ids: $itemID) {
			column_values(ids: $columnIDs) { id text value type }
		}
	}`
	data, err := c.query(ctx, document, map[string]interface{}{
		"itemID":    []string{itemID},
		"columnIDs": columnIDs,
	})
	if err != nil {
		return nil, err
	}

	values := make(map[string]domain.ColumnValue)
	items, _ := data["items"].([]interface{})
	for _, rawItem := range items {
		item, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}
		columns, _ := item["column_values"].([]interface{})
		for _, rawColumn := range columns {
			column, ok := rawColumn.(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := column["id"].(string)
			if id == "" {
				continue
			}
			text, _ := column["text"].(string)
			value, _ := column["value"].(string)
			colType, _ := column["type"].(string)
			values[id] = domain.ColumnValue{Text: text, Value: value, Type: colType}
		}
	}
	return values, nil
}

// GetFormulaValue reads a formula column, which only exposes a display string.
func (c *Client) GetFormulaValue(ctx context.Context, itemID, columnID string) (string, error) {
	values, err := c.GetColumnValues(ctx, itemID, []string{columnID})
	if err != nil {
		return "", err
	}
	return values[columnID].Text, nil
}

// SetLink writes a hyperlink value {url, text} to a column. Fire-and-forget:
// the mutation result is not consumed.
func (c *Client) SetLink(ctx context.Context, boardID, itemID, columnID, url, text string) error {
	value, err := json.Marshal(map[string]string{"url": url, "text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal link value: %w", err)
	}
	return c.changeColumnValue(ctx, boardID, itemID, columnID, string(value))
}

// SetStatus writes a status label to a column. Fire-and-forget.
func (c *Client) SetStatus(ctx context.Context, boardID, itemID, columnID, label string) error {
	value, err := json.Marshal(map[string]string{"label": label})
	if err != nil {
		return fmt.Errorf("failed to marshal status value: %w", err)
	}
	return c.changeColumnValue(ctx, boardID, itemID, columnID, string(value))
}

func (c *Client) changeColumnValue(ctx context.Context, boardID, itemID, columnID, value string) error {
	document := `mutation ($boardID: ID!, $itemID: ID!, $columnID: String!, $value: JSON!) {
		change_column_value(board_id: $boardID, item_id: $itemID, column_id: $columnID, value: $value) { id }
	}`
	_, err := c.query(ctx, document, map[string]interface{}{
		"boardID":  boardID,
		"itemID":   itemID,
		"columnID": columnID,
		"value":    value,
	})
	return err
}
