/**
 * @description
 * This package provides a client for the card payment provider API. It builds
 * the hosted-payment request, issues it with the routed secret key, and
 * extracts the hosted payment URL from the response.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, strings, time: Standard Go libraries.
 * - github.com/boardpay/billing-service/internal/domain: Request/response structs and error sentinels.
 *
 * @notes
 * - The request never carries prefilled customer identity fields. The payer
 *   must re-enter their identity on the hosted page; this is an explicit
 *   product requirement, not an omission.
 * - The secret key is passed per call because credential routing selects a
 *   different key per beneficiary IBAN and runtime mode.
 * - Error handling returns a formatted error that includes the status code
 *   and response body for easier debugging.
 */
package cardclient

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

const labelMaxLen = 140

// Client is a client for the card payment provider API.
type Client struct {
	BaseURL         string
	ReturnURL       string
	CancelURL       string
	NotificationURL string
	httpClient      *http.Client
}

// NewClient creates a new card provider client. notificationURL must already
// be resolved by the caller: the dedicated notification URL when configured,
// otherwise one derived from the public base URL.
func NewClient(baseURL, returnURL, cancelURL, notificationURL string) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		ReturnURL:       returnURL,
		CancelURL:       cancelURL,
		NotificationURL: notificationURL,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
}

// CreatePayment creates a hosted card payment and returns its URL. Metadata
// is forwarded verbatim to the provider and matched against it when the
// payment notification arrives.
func (c *Client) CreatePayment(ctx context.Context, apiKey string, amountCents int64, description string, metadata map[string]string) (string, error) {
	if len(description) > labelMaxLen {
		description = description[:labelMaxLen]
	}
	reqBody := domain.CardPaymentRequest{
		Amount:   amountCents,
		Currency: "EUR",
		Metadata: metadata,
		HostedPayment: domain.CardHostedPayment{
			ReturnURL: c.ReturnURL,
			CancelURL: c.CancelURL,
		},
		NotificationURL: c.NotificationURL,
		Description:     description,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment request body: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payments", c.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request to card provider: %v", domain.ErrIntegration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.handleErrorResponse(resp)
	}

	var paymentResp domain.CardPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode card provider response: %v", domain.ErrIntegration, err)
	}
	if paymentResp.HostedPayment.PaymentURL == "" {
		return "", fmt.Errorf("%w: card provider response missing hosted_payment.payment_url", domain.ErrIntegration)
	}

	return paymentResp.HostedPayment.PaymentURL, nil
}

// handleErrorResponse reads the body of a failed API call and returns a
// formatted error carrying the status and body.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: card provider error with status %d, but failed to read response body", domain.ErrIntegration, resp.StatusCode)
	}
	return fmt.Errorf("%w: card provider request failed with status %d: %s", domain.ErrIntegration, resp.StatusCode, string(bodyBytes))
}
