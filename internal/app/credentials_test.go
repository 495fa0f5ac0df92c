package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/boardpay/billing-service/internal/domain"
)

func TestRouteAPIKey_WhitespaceInvariantLookup(t *testing.T) {
	keys := map[string]string{
		"FR7616958000010005711982492": "sk_test_abc",
	}

	variants := []string{
		"FR76 1695 8000 0100 0571 1982 492",
		"FR7616958000010005711982492",
		"fr76 16958000010005711982492",
		" FR76\t1695 8000 0100 0571 1982 492 ",
	}
	for _, iban := range variants {
		key, err := RouteAPIKey(iban, domain.ModeTest, keys)
		if err != nil {
			t.Fatalf("RouteAPIKey(%q) returned error: %v", iban, err)
		}
		if key != "sk_test_abc" {
			t.Fatalf("RouteAPIKey(%q) = %q, want sk_test_abc", iban, key)
		}
	}
}

func TestRouteAPIKey_MissingIBANIsConfigurationError(t *testing.T) {
	_, err := RouteAPIKey("FR7600000000000000000000000", domain.ModeTest, map[string]string{})
	if err == nil {
		t.Fatal("expected error for unknown IBAN")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "FR7600000000000000000000000") || !strings.Contains(err.Error(), "test") {
		t.Fatalf("error should name the IBAN and mode, got %q", err.Error())
	}
}

func TestRouteAPIKey_ModePrefixEnforcement(t *testing.T) {
	tests := []struct {
		name    string
		mode    domain.RuntimeMode
		key     string
		wantErr bool
	}{
		{name: "test key in test mode", mode: domain.ModeTest, key: "sk_test_abc", wantErr: false},
		{name: "live key in live mode", mode: domain.ModeLive, key: "sk_live_abc", wantErr: false},
		{name: "live key in test mode", mode: domain.ModeTest, key: "sk_live_abc", wantErr: true},
		{name: "test key in live mode", mode: domain.ModeLive, key: "sk_test_abc", wantErr: true},
		{name: "unprefixed key", mode: domain.ModeTest, key: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := map[string]string{"FR7616958000010005711982492": tt.key}
			got, err := RouteAPIKey("FR7616958000010005711982492", tt.mode, keys)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got key %q", got)
				}
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Fatalf("expected configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.key {
				t.Fatalf("expected key %q, got %q", tt.key, got)
			}
		})
	}
}

func TestRouteAPIKey_UnknownMode(t *testing.T) {
	keys := map[string]string{"FR7616958000010005711982492": "sk_test_abc"}
	_, err := RouteAPIKey("FR7616958000010005711982492", domain.RuntimeMode("staging"), keys)
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown mode, got %v", err)
	}
}
