/**
 * @description
 * Credential routing for the card payment provider. Every beneficiary IBAN
 * has exactly one secret key per runtime mode; this file selects the key for
 * a given IBAN and mode and enforces that the key's prefix matches the mode,
 * so a test-mode run can never issue a live charge (and vice versa).
 *
 * @notes
 * - A missing or mode-mismatched key is a configuration error requiring
 *   operator correction, never a retry condition.
 * - On a failed lookup the available IBANs (never the key values) are logged
 *   to make misconfiguration debugging possible.
 */

package app

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/boardpay/billing-service/internal/domain"
)

// RouteAPIKey returns the secret key for the given beneficiary IBAN in the
// given runtime mode. The keys map must be keyed by normalized IBAN, as
// produced by config.ParsePaymentKeys.
func RouteAPIKey(iban string, mode domain.RuntimeMode, keys map[string]string) (string, error) {
	normalized := domain.NormalizeIBAN(iban)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty beneficiary iban", domain.ErrConfiguration)
	}

	key, ok := keys[normalized]
	if !ok {
		log.Printf("level=error component=credential_router msg=\"no key for iban\" iban=%s mode=%s available=%s",
			normalized, mode, strings.Join(availableIBANs(keys), ","))
		return "", fmt.Errorf("%w: no %s API key configured for IBAN %s", domain.ErrConfiguration, mode, normalized)
	}

	if err := checkKeyMode(key, mode); err != nil {
		return "", err
	}
	return key, nil
}

// checkKeyMode verifies the key's literal prefix against the runtime mode.
func checkKeyMode(key string, mode domain.RuntimeMode) error {
	var want string
	switch mode {
	case domain.ModeTest:
		want = domain.TestKeyPrefix
	case domain.ModeLive:
		want = domain.LiveKeyPrefix
	default:
		return fmt.Errorf("%w: unknown runtime mode %q", domain.ErrConfiguration, mode)
	}
	if !strings.HasPrefix(key, want) {
		return fmt.Errorf("%w: configured key does not match %s mode (expected %s* prefix)", domain.ErrConfiguration, mode, want)
	}
	return nil
}

// availableIBANs lists the configured IBANs for diagnostics, sorted for
// stable log output. Key values are never included.
func availableIBANs(keys map[string]string) []string {
	ibans := make([]string, 0, len(keys))
	for iban := range keys {
		ibans = append(ibans, iban)
	}
	sort.Strings(ibans)
	return ibans
}
