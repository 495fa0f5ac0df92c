package invoicingclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/boardpay/billing-service/internal/domain"
)

// invoicingStub simulates the login endpoint plus one entity endpoint, with
// control over how many bearer tokens it considers expired.
type invoicingStub struct {
	logins       int32
	currentToken atomic.Value // string
	expired      map[string]bool
	handle       func(w http.ResponseWriter, r *http.Request)
}

func newInvoicingStub(handle func(w http.ResponseWriter, r *http.Request)) *invoicingStub {
	s := &invoicingStub{expired: make(map[string]bool), handle: handle}
	s.currentToken.Store("")
	return s
}

func (s *invoicingStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/login" {
		n := atomic.AddInt32(&s.logins, 1)
		token := "tok-" + strings.Repeat("x", int(n))
		s.currentToken.Store(token)
		json.NewEncoder(w).Encode(map[string]string{"token": token})
		return
	}

	auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if auth == "" || s.expired[auth] {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
		return
	}
	s.handle(w, r)
}

func TestDo_RefreshesTokenOnceOn401(t *testing.T) {
	stub := newInvoicingStub(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []Entity{{ID: 1, Name: "Acme", Email: "a@a.fr"}}})
	})
	server := httptest.NewServer(stub)
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")

	// First call logs in and succeeds.
	entities, err := client.SearchClients(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SearchClients returned error: %v", err)
	}
	if len(entities) != 1 || entities[0].ID != 1 {
		t.Fatalf("unexpected entities: %+v", entities)
	}

	// Expire the cached token server-side; the next call must re-login and
	// replay transparently.
	stub.expired[stub.currentToken.Load().(string)] = true
	if _, err := client.SearchClients(context.Background(), "acme"); err != nil {
		t.Fatalf("expected transparent re-login, got error: %v", err)
	}
	if got := atomic.LoadInt32(&stub.logins); got != 2 {
		t.Fatalf("expected exactly 2 logins, got %d", got)
	}
}

func TestDo_SecondConsecutive401IsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "always-rejected"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")
	_, err := client.SearchClients(context.Background(), "acme")
	if err == nil {
		t.Fatal("expected fatal error after two consecutive 401s")
	}
	if !errors.Is(err, domain.ErrIntegration) || !strings.Contains(err.Error(), "twice") {
		t.Fatalf("expected double-401 integration error, got %v", err)
	}
}

func TestCreateProspect_NameConflictSentinel(t *testing.T) {
	stub := newInvoicingStub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"a prospect with this name already exists"}`))
	})
	server := httptest.NewServer(stub)
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")
	_, err := client.CreateProspect(context.Background(), ProspectInput{Name: "Taken"})
	if !errors.Is(err, ErrNameConflict) {
		t.Fatalf("expected ErrNameConflict, got %v", err)
	}
}

func TestCreateProspect_IDFromWrappedResponse(t *testing.T) {
	stub := newInvoicingStub(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":77}}`))
	})
	server := httptest.NewServer(stub)
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")
	id, err := client.CreateProspect(context.Background(), ProspectInput{Name: "Fresh"})
	if err != nil {
		t.Fatalf("CreateProspect returned error: %v", err)
	}
	if id != 77 {
		t.Fatalf("expected id 77, got %d", id)
	}
}

func TestCreateQuote_IdentityFromWrappedResponse(t *testing.T) {
	stub := newInvoicingStub(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quote":{"id":300,"number":"DEV-300"}}`))
	})
	server := httptest.NewServer(stub)
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")
	record, err := client.CreateQuote(context.Background(), QuoteInput{ProspectID: 4, Date: "2026-08-31"})
	if err != nil {
		t.Fatalf("CreateQuote returned error: %v", err)
	}
	if record.ID != 300 || record.Number != "DEV-300" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
}

func TestCreateShareLink_TriesPathsInOrder(t *testing.T) {
	var paths []string
	stub := newInvoicingStub(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/quotes/5/public-link" {
			w.Write([]byte(`{"url":"https://quotes.example/shared/5"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(stub)
	defer server.Close()

	client := NewClient(server.URL, "pub", "sec")
	raw := client.CreateShareLink(context.Background(), 5)
	if raw == nil {
		t.Fatal("expected a share-link body")
	}
	if raw["url"] != "https://quotes.example/shared/5" {
		t.Fatalf("unexpected body: %v", raw)
	}
	want := []string{"/quotes/5/share-link", "/quotes/5/public-link"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("expected ordered path attempts %v, got %v", want, paths)
	}
}
