package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-checkout/internal/config"
)

func TestPostmarkSend(t *testing.T) {
	var gotToken string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/email" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewPostmarkClient(&config.Mailer{
		BaseURL:     srv.URL,
		ServerToken: "pm-token",
		FromEmail:   "orders@shop.example.com",
	})

	err := m.Send(context.Background(), "buyer@example.com", "Order confirmed", "Pickup code: AB12CD34")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotToken != "pm-token" {
		t.Errorf("token = %q", gotToken)
	}
	want := map[string]string{
		"From":     "orders@shop.example.com",
		"To":       "buyer@example.com",
		"Subject":  "Order confirmed",
		"TextBody": "Pickup code: AB12CD34",
	}
	for k, v := range want {
		if gotPayload[k] != v {
			t.Errorf("payload[%s] = %q, want %q", k, gotPayload[k], v)
		}
	}
}

func TestPostmarkSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ErrorCode":300,"Message":"Invalid token"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := NewPostmarkClient(&config.Mailer{BaseURL: srv.URL, ServerToken: "bad"})

	if err := m.Send(context.Background(), "buyer@example.com", "s", "b"); err == nil {
		t.Fatal("want error for rejected email")
	}
}
