/**
 * @description
 * This file defines the core domain models for the billing-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used by the business logic, the API layer, and the external provider clients.
 *
 * @notes
 * - Amounts are carried as `int64` in the smallest currency unit (euro cents),
 *   which avoids floating-point inaccuracies with financial data.
 * - A Recipient references exactly one billing entity in the invoicing system:
 *   either an existing client or a prospect, never both.
 */

package domain

import (
	"errors"
	"time"
)

// RuntimeMode selects which payment-provider credential universe is active.
type RuntimeMode string

const (
	ModeTest RuntimeMode = "test"
	ModeLive RuntimeMode = "live"
)

// Secret key prefixes enforced by the credential router. A key whose prefix
// does not match the active mode is a configuration error, never a retry.
const (
	TestKeyPrefix = "sk_test_"
	LiveKeyPrefix = "sk_live_"
)

// Sentinel errors forming the service-wide error taxonomy.
var (
	// ErrConfiguration marks missing or inconsistent credentials/configuration.
	// Always fatal, never retried; requires operator correction.
	ErrConfiguration = errors.New("configuration error")
	// ErrIntegration marks a non-success response or missing field from an
	// external provider. Fatal for the current call; no automatic retry.
	ErrIntegration = errors.New("integration error")
)

// PaymentMethod identifies which provider adapter handles a payment link.
type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodWire PaymentMethod = "wire"
)

// PaymentLinkRequest is the DTO for an incoming payment-link generation request,
// carrying the board-item metadata the caller read off the CRM board.
type PaymentLinkRequest struct {
	BoardID         string            `json:"board_id"`
	ItemID          string            `json:"item_id"`
	Method          PaymentMethod     `json:"method"`
	AmountText      string            `json:"amount"` // free text, e.g. "1 250,00 €"
	Label           string            `json:"label"`
	Description     string            `json:"description"`
	Installment     int               `json:"installment"`
	BeneficiaryIBAN string            `json:"beneficiary_iban"` // card routing only
	Email           string            `json:"email"`
	Name            string            `json:"name"`
	Address         string            `json:"address"`
	Metadata        map[string]string `json:"metadata"`
	// EndToEndID, when supplied by the caller, is used verbatim as the stable
	// transaction reference. When empty a unique reference is generated, which
	// is a uniqueness mechanism only: a replayed call will mint a new one.
	EndToEndID     string `json:"end_to_end_id,omitempty"`
	LinkColumnID   string `json:"link_column_id"`
	StatusColumnID string `json:"status_column_id"`
	StatusLabel    string `json:"status_label"`
}

// PaymentLinkResult carries the hosted payment URL back to the caller.
// The service holds no other state for a payment; it is stateless per call.
type PaymentLinkResult struct {
	URL        string `json:"url"`
	EndToEndID string `json:"end_to_end_id"`
	Amount     int64  `json:"amount"` // euro cents
}

// Recipient references the resolved billing entity. Exactly one of ClientID
// or ProspectID is set.
type Recipient struct {
	ClientID   int64 `json:"client_id,omitempty"`
	ProspectID int64 `json:"prospect_id,omitempty"`
}

// RecipientCandidate is the raw identity read off the board, before resolution
// against the invoicing system.
type RecipientCandidate struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Address Address `json:"address"`
}

// Address is the normalized postal address used when creating a prospect.
// Sources use inconsistent field naming; the API layer maps them into this.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// QuoteLinkRequest is the DTO for an incoming quote generation request.
type QuoteLinkRequest struct {
	BoardID        string  `json:"board_id"`
	ItemID         string  `json:"item_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Address        Address `json:"address"`
	Description    string  `json:"description"`
	Label          string  `json:"label"`
	UnitPrice      float64 `json:"unit_price"`
	VATRate        float64 `json:"vat_rate"`
	LinkColumnID   string  `json:"link_column_id"`
	StatusColumnID string  `json:"status_column_id"`
	StatusLabel    string  `json:"status_label"`
}

// QuoteResult carries the created quote identity and, when one could be
// obtained, a public shareable link. An empty PublicLink is a valid terminal
// state: callers flag the item for manual follow-up instead of failing.
type QuoteResult struct {
	QuoteID    int64     `json:"quote_id"`
	Number     string    `json:"number"`
	PublicLink string    `json:"public_link,omitempty"`
	Recipient  Recipient `json:"recipient"`
}

// ColumnValue is one board column as returned by the CRM board API.
type ColumnValue struct {
	Text  string `json:"text"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// BillingEvent is the payload published to RabbitMQ when a link or quote is
// created, or when a generation attempt fails, so operators and downstream
// automations can react.
type BillingEvent struct {
	ItemID    string    `json:"item_id"`
	Kind      string    `json:"kind"` // link_created, quote_created, link_failed, quote_failed
	URL       string    `json:"url,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
