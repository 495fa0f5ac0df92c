package cardclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boardpay/billing-service/internal/domain"
)

func TestCreatePayment_BodyShape(t *testing.T) {
	var captured map[string]interface{}
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"pay_1","hosted_payment":{"payment_url":"https://card.example/pay/1"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "https://site.example/merci", "https://site.example/annule", "https://svc.example/webhooks/payments")
	url, err := client.CreatePayment(context.Background(), "sk_test_abc", 125000, "Acompte", map[string]string{"item_id": "42"})
	if err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}
	if url != "https://card.example/pay/1" {
		t.Fatalf("expected hosted URL, got %q", url)
	}

	if authHeader != "Bearer sk_test_abc" {
		t.Fatalf("expected bearer authorization, got %q", authHeader)
	}
	if captured["amount"] != float64(125000) {
		t.Fatalf("expected amount 125000, got %v", captured["amount"])
	}
	if captured["currency"] != "EUR" {
		t.Fatalf("expected EUR, got %v", captured["currency"])
	}
	hosted, ok := captured["hosted_payment"].(map[string]interface{})
	if !ok || hosted["return_url"] != "https://site.example/merci" || hosted["cancel_url"] != "https://site.example/annule" {
		t.Fatalf("unexpected hosted_payment object: %v", captured["hosted_payment"])
	}
	if captured["notification_url"] != "https://svc.example/webhooks/payments" {
		t.Fatalf("unexpected notification_url: %v", captured["notification_url"])
	}
}

func TestCreatePayment_NeverSendsCustomerField(t *testing.T) {
	var rawBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rawBody = string(body)
		w.Write([]byte(`{"hosted_payment":{"payment_url":"https://card.example/pay/2"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "r", "c", "n")
	// Even with identity-looking metadata, no customer object may appear.
	_, err := client.CreatePayment(context.Background(), "sk_test_abc", 1000, "Test", map[string]string{
		"email":      "payer@client.fr",
		"first_name": "Jean",
		"last_name":  "Dupont",
	})
	if err != nil {
		t.Fatalf("CreatePayment returned error: %v", err)
	}
	if strings.Contains(rawBody, `"customer"`) {
		t.Fatalf("request body must not contain a customer field: %s", rawBody)
	}
}

func TestCreatePayment_Non2xxEmbedsStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"insufficient rights"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "r", "c", "n")
	_, err := client.CreatePayment(context.Background(), "sk_test_abc", 1000, "Test", nil)
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
	if !errors.Is(err, domain.ErrIntegration) {
		t.Fatalf("expected integration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "402") || !strings.Contains(err.Error(), "insufficient rights") {
		t.Fatalf("error must embed status and body, got %q", err.Error())
	}
}

func TestCreatePayment_MissingURLField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"pay_3","hosted_payment":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "r", "c", "n")
	_, err := client.CreatePayment(context.Background(), "sk_test_abc", 1000, "Test", nil)
	if err == nil {
		t.Fatal("expected error when payment_url is absent")
	}
	if !errors.Is(err, domain.ErrIntegration) || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing-field integration error, got %v", err)
	}
}
