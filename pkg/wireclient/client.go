/**
 * @description
 * This package provides a client for the wire-transfer payment provider API.
 * It builds the payment-link request (payer identity, single transaction line
 * with the end-to-end reference, fixed beneficiary account) and extracts the
 * hosted link from the response.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, strings, time: Standard Go libraries.
 * - github.com/boardpay/billing-service/internal/domain: Request/response structs and error sentinels.
 *
 * @notes
 * - The provider authenticates with a client-identifier header plus an API
 *   version header, not a bearer token.
 * - The provider requires the payer as exactly one of two shapes: first+last
 *   name, or a company name. buildUser picks one, never both.
 * - A 403 mentioning "permission" almost always means the client id was
 *   issued for a different authentication flow of the same provider family;
 *   that case gets a dedicated diagnostic instead of the generic error.
 */
package wireclient

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

const companyNameMaxLen = 140

// PaymentLinkInput carries everything needed to build one payment link.
type PaymentLinkInput struct {
	AmountCents int64
	Label       string
	EndToEndID  string
	ItemID      string // board-item cross-reference, used as client_reference
	Metadata    map[string]string
}

// Client is a client for the wire-transfer payment provider API.
type Client struct {
	BaseURL         string
	ClientID        string
	BeneficiaryIBAN string // normalized
	BeneficiaryName string
	CallbackURL     string
	httpClient      *http.Client
}

// NewClient creates a new wire-transfer provider client. The beneficiary IBAN
// is normalized here so every outgoing request carries the canonical form.
func NewClient(baseURL, clientID, beneficiaryIBAN, beneficiaryName, callbackURL string) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		ClientID:        clientID,
		BeneficiaryIBAN: domain.NormalizeIBAN(beneficiaryIBAN),
		BeneficiaryName: beneficiaryName,
		CallbackURL:     callbackURL,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

// CreatePaymentLink creates a hosted wire-transfer payment link and returns
// its URL.
func (c *Client) CreatePaymentLink(ctx context.Context, in PaymentLinkInput) (string, error) {
	if c.BeneficiaryIBAN == "" {
		return "", fmt.Errorf("%w: no beneficiary IBAN configured for wire transfers", domain.ErrConfiguration)
	}

	reqBody := domain.WirePaymentLinkRequest{
		ClientReference: in.ItemID,
		User:            buildUser(in.Metadata),
		Transactions: []domain.WireTransaction{
			{
				Amount:     in.AmountCents,
				Currency:   "EUR",
				Label:      in.Label,
				EndToEndID: in.EndToEndID,
				Beneficiary: domain.WireBeneficiary{
					CompanyName: c.BeneficiaryName,
					IBAN:        c.BeneficiaryIBAN,
				},
			},
		},
		Metadata: in.Metadata,
		// CallbackURL is omitempty: when not configured the field must be
		// absent from the payload, not null.
		CallbackURL: c.CallbackURL,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment-link request body: %w", err)
	}

	url := fmt.Sprintf("%s/v3/payment/payment-links", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Client-Id", c.ClientID)
	httpReq.Header.Set("X-Api-Version", "2.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request to wire provider: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.handleErrorResponse(resp)
	}

	var linkResp domain.WirePaymentLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&linkResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode wire provider response: %v", domain.ErrIntegration, err)
	}
	if linkResp.URL != "" {
		return linkResp.URL, nil
	}
	if linkResp.Link != "" {
		return linkResp.Link, nil
	}
	return "", fmt.Errorf("%w: wire provider response missing url/link field", domain.ErrIntegration)
}

// buildUser derives the payer object from the request metadata. First+last
// name wins when both are present; otherwise the company name (bounded to
// the provider's 140-char limit) is used.
func buildUser(metadata map[string]string) domain.WireUser {
	user := domain.WireUser{Email: metadata["email"]}

	first := strings.TrimSpace(metadata["first_name"])
	last := strings.TrimSpace(metadata["last_name"])
	if first != "" && last != "" {
		user.FirstName = first
		user.LastName = last
		return user
	}

	company := strings.TrimSpace(metadata["company"])
	if len(company) > companyNameMaxLen {
		company = company[:companyNameMaxLen]
	}
	user.CompanyName = company
	return user
}

// handleErrorResponse reads the body of a failed API call and returns a
// formatted error carrying the status and body. A 403 mentioning
// "permission" gets the dedicated authentication-flow diagnostic.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: wire provider error with status %d, but failed to read response body", domain.ErrIntegration, resp.StatusCode)
	}
	body := string(bodyBytes)

	if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(body), "permission") {
		return fmt.Errorf("%w: wire provider denied the request (403). Check that the configured client id was issued for the payment-link flow, not the account-information flow of the same provider: %s", domain.ErrIntegration, body)
	}

	return fmt.Errorf("%w: wire provider request failed with status %d: %s", domain.ErrIntegration, resp.StatusCode, body)
}
