/**
 * @description
 * This file contains the core business logic for the billing-service. The
 * `Service` struct orchestrates the two workflows: payment-link generation
 * (amount parsing, credential routing, reference generation, provider call,
 * board write-back) and quote generation (recipient resolution, quote
 * creation, link extraction, board write-back).
 *
 * Key invariants:
 * - The board item is left untouched when any fatal error occurs before a
 *   URL is obtained; the error is surfaced verbatim to the operator channel
 *   (log line plus a failure event).
 * - A write-back failure after the URL was obtained is logged but does not
 *   fail the call: the URL is the valuable artifact and is still returned.
 *
 * @dependencies
 * - context, fmt, log, strings, time: Standard Go libraries.
 * - internal/domain: Domain models and error sentinels.
 * - pkg/invoicingclient, pkg/rabbitmq, pkg/wireclient: External service communication.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/boardpay/billing-service/internal/domain"
	"github.com/boardpay/billing-service/pkg/rabbitmq"
	"github.com/boardpay/billing-service/pkg/wireclient"
)

const (
	defaultLinkStatus   = "Lien généré"
	defaultQuoteStatus  = "Devis généré"
	quoteManualFollowUp = "Devis sans lien"
)

// CardGateway creates hosted card payments.
type CardGateway interface {
	CreatePayment(ctx context.Context, apiKey string, amountCents int64, description string, metadata map[string]string) (string, error)
}

// WireGateway creates hosted wire-transfer payment links.
type WireGateway interface {
	CreatePaymentLink(ctx context.Context, in wireclient.PaymentLinkInput) (string, error)
}

// BoardWriter writes link and status values back to the CRM board.
type BoardWriter interface {
	SetLink(ctx context.Context, boardID, itemID, columnID, url, text string) error
	SetStatus(ctx context.Context, boardID, itemID, columnID, label string) error
}

// InvoicingAPI combines the directory and quote slices of the invoicing
// client used by the quote workflow.
type InvoicingAPI interface {
	InvoicingDirectory
	QuoteAPI
}

// Service provides the core business logic for billing synchronization.
type Service struct {
	mode      domain.RuntimeMode
	cardKeys  map[string]string // normalized IBAN -> key, for the active mode
	card      CardGateway
	wire      WireGateway
	invoicing InvoicingAPI
	board     BoardWriter
	events    rabbitmq.Publisher
}

// NewService creates a new billing service instance. cardKeys must be the
// credential map for the given mode.
func NewService(mode domain.RuntimeMode, cardKeys map[string]string, card CardGateway, wire WireGateway, invoicing InvoicingAPI, board BoardWriter, events rabbitmq.Publisher) *Service {
	return &Service{
		mode:      mode,
		cardKeys:  cardKeys,
		card:      card,
		wire:      wire,
		invoicing: invoicing,
		board:     board,
		events:    events,
	}
}

// CreatePaymentLink runs the payment-link workflow for one board item.
func (s *Service) CreatePaymentLink(ctx context.Context, req domain.PaymentLinkRequest) (*domain.PaymentLinkResult, error) {
	amount := ParseAmountCents(req.AmountText)
	if amount <= 0 {
		err := fmt.Errorf("no usable amount on item %s (raw value %q)", req.ItemID, req.AmountText)
		s.reportFailure(ctx, req.ItemID, "link_failed", err)
		return nil, err
	}

	reference := strings.TrimSpace(req.EndToEndID)
	if reference == "" {
		reference = EndToEndReference(req.ItemID, req.Installment, amount)
	}

	metadata := paymentMetadata(req)

	url, err := s.createHostedURL(ctx, req, amount, reference, metadata)
	if err != nil {
		s.reportFailure(ctx, req.ItemID, "link_failed", err)
		return nil, err
	}

	s.writeBack(ctx, req.BoardID, req.ItemID, req.LinkColumnID, req.StatusColumnID, url, req.Label, statusOr(req.StatusLabel, defaultLinkStatus))
	s.publish(ctx, "billing.link_created", domain.BillingEvent{
		ItemID:    req.ItemID,
		Kind:      "link_created",
		URL:       url,
		Timestamp: time.Now(),
	})

	return &domain.PaymentLinkResult{URL: url, EndToEndID: reference, Amount: amount}, nil
}

// createHostedURL dispatches to the provider adapter for the requested method.
func (s *Service) createHostedURL(ctx context.Context, req domain.PaymentLinkRequest, amount int64, reference string, metadata map[string]string) (string, error) {
	switch req.Method {
	case domain.MethodCard:
		apiKey, err := RouteAPIKey(req.BeneficiaryIBAN, s.mode, s.cardKeys)
		if err != nil {
			return "", err
		}
		return s.card.CreatePayment(ctx, apiKey, amount, labelOrDescription(req), metadata)
	case domain.MethodWire:
		return s.wire.CreatePaymentLink(ctx, wireclient.PaymentLinkInput{
			AmountCents: amount,
			Label:       labelOrDescription(req),
			EndToEndID:  reference,
			ItemID:      req.ItemID,
			Metadata:    metadata,
		})
	default:
		return "", fmt.Errorf("%w: unknown payment method %q", domain.ErrConfiguration, req.Method)
	}
}

// CreateQuote runs the quote workflow for one board item.
func (s *Service) CreateQuote(ctx context.Context, req domain.QuoteLinkRequest) (*domain.QuoteResult, error) {
	recipient, err := ResolveRecipient(ctx, s.invoicing, domain.RecipientCandidate{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		s.reportFailure(ctx, req.ItemID, "quote_failed", err)
		return nil, err
	}

	result, err := BuildQuote(ctx, s.invoicing, recipient, req)
	if err != nil {
		s.reportFailure(ctx, req.ItemID, "quote_failed", err)
		return nil, err
	}

	if result.PublicLink != "" {
		s.writeBack(ctx, req.BoardID, req.ItemID, req.LinkColumnID, req.StatusColumnID, result.PublicLink, req.Label, statusOr(req.StatusLabel, defaultQuoteStatus))
	} else {
		// No link could be obtained; leave the link column blank and flag
		// the item for manual follow-up.
		if err := s.board.SetStatus(ctx, req.BoardID, req.ItemID, req.StatusColumnID, quoteManualFollowUp); err != nil {
			log.Printf("level=warn component=billing_service msg=\"status write-back failed\" item_id=%s err=%v", req.ItemID, err)
		}
	}

	s.publish(ctx, "billing.quote_created", domain.BillingEvent{
		ItemID:    req.ItemID,
		Kind:      "quote_created",
		URL:       result.PublicLink,
		Timestamp: time.Now(),
	})

	return result, nil
}

// writeBack sets the link and status columns. Failures are logged, not
// propagated: the URL is already minted at this point.
func (s *Service) writeBack(ctx context.Context, boardID, itemID, linkColumn, statusColumn, url, text, status string) {
	if err := s.board.SetLink(ctx, boardID, itemID, linkColumn, url, text); err != nil {
		log.Printf("level=warn component=billing_service msg=\"link write-back failed\" item_id=%s err=%v", itemID, err)
	}
	if err := s.board.SetStatus(ctx, boardID, itemID, statusColumn, status); err != nil {
		log.Printf("level=warn component=billing_service msg=\"status write-back failed\" item_id=%s err=%v", itemID, err)
	}
}

// reportFailure surfaces a fatal error to the operator channel. The board
// item is deliberately not touched.
func (s *Service) reportFailure(ctx context.Context, itemID, kind string, err error) {
	log.Printf("level=error component=billing_service msg=\"workflow failed\" item_id=%s kind=%s err=%v", itemID, kind, err)
	s.publish(ctx, "billing."+kind, domain.BillingEvent{
		ItemID:    itemID,
		Kind:      kind,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

func (s *Service) publish(ctx context.Context, routingKey string, event domain.BillingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBillingEvent(ctx, routingKey, event); err != nil {
		log.Printf("level=warn component=billing_service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// paymentMetadata merges the board identity fields into the metadata map
// forwarded to the provider, for cross-referencing at notification time. The
// card provider still never receives prefilled customer identity fields;
// metadata is opaque to the hosted page.
func paymentMetadata(req domain.PaymentLinkRequest) map[string]string {
	metadata := make(map[string]string, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["item_id"] = req.ItemID
	if req.Email != "" {
		metadata["email"] = req.Email
	}
	if req.Name != "" && metadata["company"] == "" && (metadata["first_name"] == "" || metadata["last_name"] == "") {
		metadata["company"] = req.Name
	}
	return metadata
}

func labelOrDescription(req domain.PaymentLinkRequest) string {
	if strings.TrimSpace(req.Description) != "" {
		return req.Description
	}
	return req.Label
}

func statusOr(label, fallback string) string {
	if strings.TrimSpace(label) == "" {
		return fallback
	}
	return label
}
