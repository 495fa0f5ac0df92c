/**
 * @description
 * This file defines the request/response payload structs for the two payment
 * providers (card and wire transfer). Keeping provider payloads as distinct
 * types, separate from the internal domain models, mirrors how each provider
 * names and nests its fields on the wire.
 *
 * @notes
 * - CardPaymentRequest deliberately has no customer field: the payer must
 *   re-enter their identity on the hosted page. This is a product requirement,
 *   not an omission.
 * - WireUser carries either first/last name or a company name, never both
 *   shapes at once; omitempty keeps the unused shape off the wire.
 */

package domain

// CardHostedPayment holds the fixed redirect targets for the hosted card page.
type CardHostedPayment struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

// CardPaymentRequest is the body for POST /v1/payments on the card provider.
type CardPaymentRequest struct {
	Amount          int64             `json:"amount"` // euro cents
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	HostedPayment   CardHostedPayment `json:"hosted_payment"`
	NotificationURL string            `json:"notification_url"`
	Description     string            `json:"description,omitempty"`
}

// CardPaymentResponse is the success body of the card provider.
type CardPaymentResponse struct {
	ID            string `json:"id"`
	HostedPayment struct {
		PaymentURL string `json:"payment_url"`
	} `json:"hosted_payment"`
}

// WireUser identifies the payer for the wire-transfer provider. Exactly one
// shape is populated: first+last name, or a company name.
type WireUser struct {
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// WireBeneficiary is the fixed receiving account attached to every
// wire-transfer payment link.
type WireBeneficiary struct {
	CompanyName string `json:"company_name"`
	IBAN        string `json:"iban"`
}

// WireTransaction is the single transaction line of a payment link.
type WireTransaction struct {
	Amount      int64           `json:"amount"` // euro cents
	Currency    string          `json:"currency"`
	Label       string          `json:"label"`
	EndToEndID  string          `json:"end_to_end_id"`
	Beneficiary WireBeneficiary `json:"beneficiary"`
}

// WirePaymentLinkRequest is the body for POST /v3/payment/payment-links.
// CallbackURL is omitted entirely when not configured; the provider rejects
// an explicit null.
type WirePaymentLinkRequest struct {
	ClientReference string            `json:"client_reference"`
	User            WireUser          `json:"user"`
	Transactions    []WireTransaction `json:"transactions"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CallbackURL     string            `json:"callback_url,omitempty"`
}

// WirePaymentLinkResponse is the success body of the wire provider. The
// hosted URL arrives under either `url` or `link` depending on API version.
type WirePaymentLinkResponse struct {
	URL  string `json:"url"`
	Link string `json:"link"`
}
