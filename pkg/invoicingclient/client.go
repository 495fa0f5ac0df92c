/**
 * @description
 * This package provides a client for the invoicing system API. It manages the
 * bearer-token session (login with public/secret keys, lazy creation,
 * transparent refresh on a 401) and exposes the entity and quote operations
 * the billing-service needs: client/prospect search, prospect creation, quote
 * creation and retrieval, and best-effort share-link creation.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, strings, sync, time: Standard Go libraries.
 * - github.com/boardpay/billing-service/internal/domain: Error sentinels.
 *
 * @notes
 * - The token is the only cross-call state in the whole service. Concurrent
 *   callers may race to refresh it; that costs a redundant login at worst,
 *   never incorrect data, so a plain mutex around the cache is enough.
 * - A request is replayed exactly once after a 401 triggers a re-login; a
 *   second consecutive 401 is fatal.
 */
package invoicingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/boardpay/billing-service/internal/domain"
)

// ErrNameConflict reports that a prospect creation failed because the name is
// already taken. The resolver recovers from this by re-querying by name.
var ErrNameConflict = errors.New("prospect name already in use")

// Entity is a billing entity (client or prospect) returned by a search.
type Entity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProspectInput is the payload for creating a new prospect.
type ProspectInput struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Address ProspectAddress `json:"address"`
}

// ProspectAddress is the nested address object of a prospect.
type ProspectAddress struct {
	AddressLine string `json:"address_line_1"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// QuoteRow is one line item of a quote.
type QuoteRow struct {
	Designation string  `json:"designation"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
}

// QuoteInput is the payload for creating a draft quote. Exactly one of
// ClientID or ProspectID is non-zero.
type QuoteInput struct {
	ClientID   int64      `json:"client_id,omitempty"`
	ProspectID int64      `json:"prospect_id,omitempty"`
	Date       string     `json:"date"` // YYYY-MM-DD
	Rows       []QuoteRow `json:"rows"`
}

// QuoteRecord is the decoded creation response: the quote identity plus the
// raw body, which downstream link extraction scans since the response shape
// varies across API versions.
type QuoteRecord struct {
	ID     int64
	Number string
	Raw    map[string]interface{}
}

// shareLinkPaths are the known share-link creation endpoints, tried in order.
// Older deployments expose the first, newer ones the second or third.
var shareLinkPaths = []string{
	"/quotes/%d/share-link",
	"/quotes/%d/public-link",
	"/quotes/%d/links",
}

// Client is a client for the invoicing system API.
type Client struct {
	BaseURL    string
	PublicKey  string
	SecretKey  string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a new invoicing API client.
func NewClient(baseURL, publicKey, secretKey string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		PublicKey: publicKey,
		SecretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

// Invalidate drops the cached token so the next call logs in again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// ensureToken returns the cached bearer token, logging in first if none is
// cached yet.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// login exchanges the public/secret key pair for a bearer token.
func (c *Client) login(ctx context.Context) (string, error) {
	payload := map[string]string{
		"public_key": c.PublicKey,
		"secret_key": c.SecretKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/login", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to reach invoicing login endpoint: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: invoicing login failed with status %d: %s", domain.ErrIntegration, resp.StatusCode, string(bodyBytes))
	}

	var loginResp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode invoicing login response: %v", domain.ErrIntegration, err)
	}
	token := loginResp.Token
	if token == "" {
		token = loginResp.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("%w: invoicing login response missing token", domain.ErrIntegration)
	}
	return token, nil
}

// do issues an authenticated request, replaying it once after re-login when
// the first attempt comes back 401. It returns the status code and raw body
// of the final attempt.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	status, respBody, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusUnauthorized {
		return status, respBody, nil
	}

	// Token expired: refresh once and replay.
	c.Invalidate()
	status, respBody, err = c.doOnce(ctx, method, path, body)
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized {
		return 0, nil, fmt.Errorf("%w: invoicing authentication failed twice in a row: %s", domain.ErrIntegration, string(respBody))
	}
	return status, respBody, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to send request to invoicing API: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read invoicing API response: %v", domain.ErrIntegration, err)
	}
	return resp.StatusCode, respBody, nil
}

// SearchClients searches confirmed clients by free-text query.
func (c *Client) SearchClients(ctx context.Context, query string) ([]Entity, error) {
	return c.search(ctx, "/clients/search", query)
}

// SearchProspects searches prospects by free-text query.
func (c *Client) SearchProspects(ctx context.Context, query string) ([]Entity, error) {
	return c.search(ctx, "/prospects/search", query)
}

func (c *Client) search(ctx context.Context, path, query string) ([]Entity, error) {
	status, body, err := c.do(ctx, "POST", path, map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: invoicing search failed with status %d: %s", domain.ErrIntegration, status, string(body))
	}

	var searchResp struct {
		Data []Entity `json:"data"`
	}
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode invoicing search response: %v", domain.ErrIntegration, err)
	}
	return searchResp.Data, nil
}

// CreateProspect creates a new prospect and returns its id. A name-uniqueness
// rejection surfaces as ErrNameConflict so the caller can recover by looking
// the existing prospect up.
func (c *Client) CreateProspect(ctx context.Context, in ProspectInput) (int64, error) {
	status, body, err := c.do(ctx, "POST", "/prospects", in)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		lower := strings.ToLower(string(body))
		if status == http.StatusConflict ||
			(status == http.StatusBadRequest && strings.Contains(lower, "already") && strings.Contains(lower, "name")) {
			return 0, fmt.Errorf("%w: %s", ErrNameConflict, string(body))
		}
		return 0, fmt.Errorf("%w: prospect creation failed with status %d: %s", domain.ErrIntegration, status, string(body))
	}

	var createResp struct {
		ID   int64 `json:"id"`
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &createResp); err != nil {
		return 0, fmt.Errorf("%w: failed to decode prospect creation response: %v", domain.ErrIntegration, err)
	}
	id := createResp.ID
	if id == 0 {
		id = createResp.Data.ID
	}
	if id == 0 {
		return 0, fmt.Errorf("%w: prospect creation response missing id", domain.ErrIntegration)
	}
	return id, nil
}

// CreateQuote creates a draft quote and returns its identity plus the raw
// response body for link extraction.
func (c *Client) CreateQuote(ctx context.Context, in QuoteInput) (*QuoteRecord, error) {
	status, body, err := c.do(ctx, "POST", "/quotes", in)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("%w: quote creation failed with status %d: %s", domain.ErrIntegration, status, string(body))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode quote creation response: %v", domain.ErrIntegration, err)
	}

	record := &QuoteRecord{Raw: raw}
	record.ID, record.Number = quoteIdentity(raw)
	if record.ID == 0 {
		return nil, fmt.Errorf("%w: quote creation response missing id", domain.ErrIntegration)
	}
	return record, nil
}

// GetQuote fetches a quote by id and returns the raw decoded body.
func (c *Client) GetQuote(ctx context.Context, quoteID int64) (map[string]interface{}, error) {
	status, body, err := c.do(ctx, "GET", fmt.Sprintf("/quotes/%d", quoteID), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: quote fetch failed with status %d: %s", domain.ErrIntegration, status, string(body))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode quote fetch response: %v", domain.ErrIntegration, err)
	}
	return raw, nil
}

// CreateShareLink tries the known share-link endpoints in order and returns
// the raw body of the first that succeeds. All failing is not an error to
// the caller beyond the nil map: share links are best-effort.
func (c *Client) CreateShareLink(ctx context.Context, quoteID int64) map[string]interface{} {
	for _, pathFmt := range shareLinkPaths {
		status, body, err := c.do(ctx, "POST", fmt.Sprintf(pathFmt, quoteID), map[string]interface{}{})
		if err != nil || status != http.StatusOK && status != http.StatusCreated {
			continue
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(body, &raw); err != nil {
			continue
		}
		return raw
	}
	return nil
}

// quoteIdentity pulls the quote id and number out of a response body, looking
// at the top level first and then one level under a data/quote wrapper.
func quoteIdentity(raw map[string]interface{}) (int64, string) {
	if id, number, ok := identityFields(raw); ok {
		return id, number
	}
	for _, wrapper := range []string{"data", "quote"} {
		if nested, ok := raw[wrapper].(map[string]interface{}); ok {
			if id, number, ok := identityFields(nested); ok {
				return id, number
			}
		}
	}
	return 0, ""
}

func identityFields(m map[string]interface{}) (int64, string, bool) {
	idVal, ok := m["id"].(float64)
	if !ok {
		return 0, "", false
	}
	number, _ := m["number"].(string)
	return int64(idVal), number, true
}
