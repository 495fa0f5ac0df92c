/**
 * @description
 * Quote assembly and public-link extraction. A quote is a draft with one line
 * item (quantity 1, price and VAT rate rounded to 2 decimals) dated today,
 * issued to the resolved recipient.
 *
 * The invoicing API does not return the public link in one consistent place,
 * so extraction is an ordered chain of attempts: scan the creation response,
 * scan one level under its data/quote wrapper, re-fetch the quote and rescan,
 * then actively create a share link. Every step returns an Option-style
 * (string, bool); the first success wins. All steps failing yields an empty
 * link, which is a valid terminal state the caller handles by flagging the
 * board item for manual follow-up.
 */

package app

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/boardpay/billing-service/internal/domain"
	"github.com/boardpay/billing-service/pkg/invoicingclient"
)

const defaultDesignation = "Prestation"

// QuoteAPI is the slice of the invoicing client the quote builder needs.
type QuoteAPI interface {
	CreateQuote(ctx context.Context, in invoicingclient.QuoteInput) (*invoicingclient.QuoteRecord, error)
	GetQuote(ctx context.Context, quoteID int64) (map[string]interface{}, error)
	CreateShareLink(ctx context.Context, quoteID int64) map[string]interface{}
}

// BuildQuote creates a draft quote for the recipient and extracts a public
// link when one can be obtained.
func BuildQuote(ctx context.Context, api QuoteAPI, recipient domain.Recipient, req domain.QuoteLinkRequest) (*domain.QuoteResult, error) {
	input := invoicingclient.QuoteInput{
		ClientID:   recipient.ClientID,
		ProspectID: recipient.ProspectID,
		Date:       time.Now().Format("2006-01-02"),
		Rows: []invoicingclient.QuoteRow{
			{
				Designation: designation(req),
				Quantity:    1,
				UnitPrice:   round2(req.UnitPrice),
				VATRate:     round2(req.VATRate),
			},
		},
	}

	record, err := api.CreateQuote(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &domain.QuoteResult{
		QuoteID:   record.ID,
		Number:    record.Number,
		Recipient: recipient,
	}
	result.PublicLink = extractQuoteLink(ctx, api, record)
	return result, nil
}

// designation picks the line-item text: description, else label, else a
// generic fallback.
func designation(req domain.QuoteLinkRequest) string {
	if text := strings.TrimSpace(req.Description); text != "" {
		return text
	}
	if text := strings.TrimSpace(req.Label); text != "" {
		return text
	}
	return defaultDesignation
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// linkExtractor is one attempt at pulling a URL-like field out of a decoded
// response body.
type linkExtractor func(map[string]interface{}) (string, bool)

// quoteLinkExtractors is the ordered field scan applied to each response
// body: direct URL-like fields first, then one level under a wrapper.
var quoteLinkExtractors = []linkExtractor{
	scanLinkFields,
	scanWrapped("data"),
	scanWrapped("quote"),
}

// linkFieldNames are the known URL-carrying field names, in preference order.
var linkFieldNames = []string{"public_link", "public_url", "share_link", "url", "link"}

// extractQuoteLink runs the fallback chain: creation response, re-fetched
// quote, then active share-link creation. Returns "" when everything fails.
func extractQuoteLink(ctx context.Context, api QuoteAPI, record *invoicingclient.QuoteRecord) string {
	if link, ok := runExtractors(record.Raw); ok {
		return link
	}

	if refreshed, err := api.GetQuote(ctx, record.ID); err == nil {
		if link, ok := runExtractors(refreshed); ok {
			return link
		}
	}

	if created := api.CreateShareLink(ctx, record.ID); created != nil {
		if link, ok := runExtractors(created); ok {
			return link
		}
	}

	return ""
}

func runExtractors(raw map[string]interface{}) (string, bool) {
	if raw == nil {
		return "", false
	}
	for _, extract := range quoteLinkExtractors {
		if link, ok := extract(raw); ok {
			return link, true
		}
	}
	return "", false
}

// scanLinkFields looks for a URL-like value under the known field names.
func scanLinkFields(m map[string]interface{}) (string, bool) {
	for _, field := range linkFieldNames {
		if value, ok := m[field].(string); ok && strings.HasPrefix(value, "http") {
			return value, true
		}
	}
	return "", false
}

// scanWrapped applies the field scan one level under the named wrapper key.
func scanWrapped(wrapper string) linkExtractor {
	return func(m map[string]interface{}) (string, bool) {
		nested, ok := m[wrapper].(map[string]interface{})
		if !ok {
			return "", false
		}
		return scanLinkFields(nested)
	}
}
