package app

import (
	"context"
	"testing"

	"github.com/boardpay/billing-service/internal/domain"
	"github.com/boardpay/billing-service/pkg/invoicingclient"
)

// mockQuoteAPI scripts the three invoicing calls the quote builder can make.
type mockQuoteAPI struct {
	createRecord *invoicingclient.QuoteRecord
	createErr    error
	createInput  invoicingclient.QuoteInput
	getBody      map[string]interface{}
	getErr       error
	getCalls     int
	shareBody    map[string]interface{}
	shareCalls   int
}

func (m *mockQuoteAPI) CreateQuote(ctx context.Context, in invoicingclient.QuoteInput) (*invoicingclient.QuoteRecord, error) {
	m.createInput = in
	return m.createRecord, m.createErr
}

func (m *mockQuoteAPI) GetQuote(ctx context.Context, quoteID int64) (map[string]interface{}, error) {
	m.getCalls++
	return m.getBody, m.getErr
}

func (m *mockQuoteAPI) CreateShareLink(ctx context.Context, quoteID int64) map[string]interface{} {
	m.shareCalls++
	return m.shareBody
}

func TestBuildQuote_LineItemShape(t *testing.T) {
	api := &mockQuoteAPI{
		createRecord: &invoicingclient.QuoteRecord{ID: 100, Number: "DEV-100", Raw: map[string]interface{}{
			"id": float64(100), "public_link": "https://quotes.example/100",
		}},
	}

	result, err := BuildQuote(context.Background(), api, domain.Recipient{ProspectID: 4}, domain.QuoteLinkRequest{
		Description: "Site vitrine",
		Label:       "ignored when description present",
		UnitPrice:   1234.567,
		VATRate:     20.004,
	})
	if err != nil {
		t.Fatalf("BuildQuote returned error: %v", err)
	}

	in := api.createInput
	if in.ProspectID != 4 || in.ClientID != 0 {
		t.Fatalf("expected prospect 4 only, got client=%d prospect=%d", in.ClientID, in.ProspectID)
	}
	if len(in.Rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(in.Rows))
	}
	row := in.Rows[0]
	if row.Designation != "Site vitrine" {
		t.Fatalf("expected description as designation, got %q", row.Designation)
	}
	if row.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", row.Quantity)
	}
	if row.UnitPrice != 1234.57 {
		t.Fatalf("expected price rounded to 1234.57, got %v", row.UnitPrice)
	}
	if row.VATRate != 20.0 {
		t.Fatalf("expected rate rounded to 20.0, got %v", row.VATRate)
	}
	if result.PublicLink != "https://quotes.example/100" {
		t.Fatalf("expected direct link extraction, got %q", result.PublicLink)
	}
}

func TestDesignationFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		req  domain.QuoteLinkRequest
		want string
	}{
		{name: "description wins", req: domain.QuoteLinkRequest{Description: "desc", Label: "label"}, want: "desc"},
		{name: "label when no description", req: domain.QuoteLinkRequest{Label: "label"}, want: "label"},
		{name: "generic fallback", req: domain.QuoteLinkRequest{}, want: defaultDesignation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := designation(tt.req); got != tt.want {
				t.Fatalf("designation = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractQuoteLink_NestedWrapper(t *testing.T) {
	api := &mockQuoteAPI{}
	record := &invoicingclient.QuoteRecord{ID: 5, Raw: map[string]interface{}{
		"data": map[string]interface{}{"url": "https://quotes.example/5"},
	}}

	if got := extractQuoteLink(context.Background(), api, record); got != "https://quotes.example/5" {
		t.Fatalf("expected nested extraction, got %q", got)
	}
	if api.getCalls != 0 || api.shareCalls != 0 {
		t.Fatalf("nested extraction should not hit the API, got get=%d share=%d", api.getCalls, api.shareCalls)
	}
}

func TestExtractQuoteLink_RefetchFallback(t *testing.T) {
	api := &mockQuoteAPI{
		getBody: map[string]interface{}{"quote": map[string]interface{}{"public_link": "https://quotes.example/re"}},
	}
	record := &invoicingclient.QuoteRecord{ID: 5, Raw: map[string]interface{}{"id": float64(5)}}

	if got := extractQuoteLink(context.Background(), api, record); got != "https://quotes.example/re" {
		t.Fatalf("expected refetch extraction, got %q", got)
	}
	if api.getCalls != 1 {
		t.Fatalf("expected one refetch, got %d", api.getCalls)
	}
	if api.shareCalls != 0 {
		t.Fatalf("share-link creation should not run when refetch succeeds, got %d", api.shareCalls)
	}
}

func TestExtractQuoteLink_ShareLinkFallback(t *testing.T) {
	api := &mockQuoteAPI{
		getBody:   map[string]interface{}{"id": float64(5)},
		shareBody: map[string]interface{}{"link": "https://quotes.example/shared"},
	}
	record := &invoicingclient.QuoteRecord{ID: 5, Raw: map[string]interface{}{"id": float64(5)}}

	if got := extractQuoteLink(context.Background(), api, record); got != "https://quotes.example/shared" {
		t.Fatalf("expected share-link extraction, got %q", got)
	}
}

func TestExtractQuoteLink_AllFailYieldsEmpty(t *testing.T) {
	// A non-URL string in a link field must not be accepted.
	api := &mockQuoteAPI{
		getBody: map[string]interface{}{"url": "not-a-url"},
	}
	record := &invoicingclient.QuoteRecord{ID: 5, Raw: map[string]interface{}{"id": float64(5)}}

	if got := extractQuoteLink(context.Background(), api, record); got != "" {
		t.Fatalf("expected empty link, got %q", got)
	}
}
