/**
 * @description
 * Recipient resolution for quote generation. Before a quote can be issued,
 * the name/email read off the board must be matched to a billing entity in
 * the invoicing system, or a new prospect created. The precedence is strict
 * to avoid duplicate billing entities:
 *
 *   1. existing client matched by exact case-insensitive email
 *   2. existing prospect matched by exact case-insensitive email
 *   3. existing prospect matched by exact case-insensitive trimmed name
 *   4. create a new prospect
 *
 * @notes
 * - Lookups are best-effort: a failed search is treated as "no match" and
 *   resolution continues down the chain. Creation is the only fatal step,
 *   except when the failure is a name-uniqueness conflict, in which case the
 *   resolver re-queries by name and returns the existing prospect (two
 *   concurrent resolutions racing to create the same prospect heal here).
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/boardpay/billing-service/internal/domain"
	"github.com/boardpay/billing-service/pkg/invoicingclient"
)

// Sentinel address values used when the board did not provide a field; the
// invoicing system rejects prospects with empty address objects.
const (
	fallbackStreet   = "Adresse non précisée"
	fallbackCity     = "N/A"
	fallbackPostcode = "00000"
	fallbackCountry  = "FR"
)

// InvoicingDirectory is the slice of the invoicing client the resolver needs.
type InvoicingDirectory interface {
	SearchClients(ctx context.Context, query string) ([]invoicingclient.Entity, error)
	SearchProspects(ctx context.Context, query string) ([]invoicingclient.Entity, error)
	CreateProspect(ctx context.Context, in invoicingclient.ProspectInput) (int64, error)
}

// ResolveRecipient finds or creates the billing entity for a candidate and
// returns a reference holding exactly one of client id or prospect id.
func ResolveRecipient(ctx context.Context, dir InvoicingDirectory, candidate domain.RecipientCandidate) (domain.Recipient, error) {
	email := strings.TrimSpace(candidate.Email)
	name := strings.TrimSpace(candidate.Name)

	if email != "" {
		if entity, found := lookupByEmail(ctx, dir.SearchClients, "clients", email); found {
			return domain.Recipient{ClientID: entity.ID}, nil
		}
		if entity, found := lookupByEmail(ctx, dir.SearchProspects, "prospects", email); found {
			return domain.Recipient{ProspectID: entity.ID}, nil
		}
	}

	if name != "" {
		if entity, found := lookupByName(ctx, dir.SearchProspects, name); found {
			return domain.Recipient{ProspectID: entity.ID}, nil
		}
	}

	id, err := createProspect(ctx, dir, name, email, candidate.Address)
	if err != nil {
		return domain.Recipient{}, err
	}
	return domain.Recipient{ProspectID: id}, nil
}

// lookupByEmail searches with the email as query and keeps only an exact
// case-insensitive email match. A search error is treated as "not found" so
// resolution can continue; the error is logged for operators.
func lookupByEmail(ctx context.Context, search func(context.Context, string) ([]invoicingclient.Entity, error), kind, email string) (invoicingclient.Entity, bool) {
	entities, err := search(ctx, email)
	if err != nil {
		log.Printf("level=warn component=recipient_resolver msg=\"lookup failed; treating as not found\" kind=%s err=%v", kind, err)
		return invoicingclient.Entity{}, false
	}
	for _, entity := range entities {
		if strings.EqualFold(strings.TrimSpace(entity.Email), email) {
			return entity, true
		}
	}
	return invoicingclient.Entity{}, false
}

// lookupByName searches prospects with the name as query and keeps only an
// exact case-insensitive trimmed name match.
func lookupByName(ctx context.Context, search func(context.Context, string) ([]invoicingclient.Entity, error), name string) (invoicingclient.Entity, bool) {
	entities, err := search(ctx, name)
	if err != nil {
		log.Printf("level=warn component=recipient_resolver msg=\"lookup failed; treating as not found\" kind=prospects_by_name err=%v", err)
		return invoicingclient.Entity{}, false
	}
	for _, entity := range entities {
		if strings.EqualFold(strings.TrimSpace(entity.Name), name) {
			return entity, true
		}
	}
	return invoicingclient.Entity{}, false
}

// createProspect creates the prospect with sentinel address fallbacks. On a
// name-uniqueness conflict it re-queries by name and returns the existing
// prospect instead of propagating the error.
func createProspect(ctx context.Context, dir InvoicingDirectory, name, email string, address domain.Address) (int64, error) {
	input := invoicingclient.ProspectInput{
		Name:  name,
		Email: email, // empty string is accepted
		Address: invoicingclient.ProspectAddress{
			AddressLine: valueOr(address.Street, fallbackStreet),
			City:        valueOr(address.City, fallbackCity),
			PostalCode:  valueOr(address.Postcode, fallbackPostcode),
			CountryCode: valueOr(address.Country, fallbackCountry),
		},
	}

	id, err := dir.CreateProspect(ctx, input)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, invoicingclient.ErrNameConflict) {
		return 0, fmt.Errorf("failed to create prospect %q: %w", name, err)
	}

	// Someone created the same prospect first; adopt theirs.
	log.Printf("level=info component=recipient_resolver msg=\"prospect name taken; adopting existing\" name=%q", name)
	if entity, found := lookupByName(ctx, dir.SearchProspects, name); found {
		return entity.ID, nil
	}
	return 0, fmt.Errorf("prospect name %q already taken but existing prospect not found: %w", name, err)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
