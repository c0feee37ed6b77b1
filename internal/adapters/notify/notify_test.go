package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	port "pet-health-records/internal/ports/notify"
)

func TestTwilio_SendsFormWithBasicAuth(t *testing.T) {
	var gotPath, gotTo, gotBody, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	tw, err := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "secret", From: "+15550000000", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := tw.Send(context.Background(), "+5491155550001", "Código: 123456"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC1/Messages.json" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotUser != "AC1" || gotPass != "secret" {
		t.Fatalf("basic auth = %s:%s", gotUser, gotPass)
	}
	if gotTo != "+5491155550001" || gotBody != "Código: 123456" {
		t.Fatalf("form to=%q body=%q", gotTo, gotBody)
	}
}

func TestTwilio_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tw, _ := NewTwilio(TwilioConfig{AccountSID: "AC1", AuthToken: "secret", From: "+15550000000", BaseURL: srv.URL})
	if err := tw.Send(context.Background(), "+1", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewTwilio_RequiresConfig(t *testing.T) {
	if _, err := NewTwilio(TwilioConfig{AccountSID: "AC1"}); !errors.Is(err, ErrTwilioNotConfigured) {
		t.Fatalf("expected ErrTwilioNotConfigured, got %v", err)
	}
}

func TestResend_PostsEmail(t *testing.T) {
	var gotPath, gotAuth string
	var got struct {
		From string   `json:"from"`
		To   []string `json:"to"`
		Text string   `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	rs, err := NewResend(ResendConfig{APIKey: "re_key", FromEmail: "noreply@example.com", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rs.Send(context.Background(), "ana@example.com", "Revocaste el acceso"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/emails" || gotAuth != "Bearer re_key" {
		t.Fatalf("path=%s auth=%s", gotPath, gotAuth)
	}
	if got.From != "noreply@example.com" || len(got.To) != 1 || got.To[0] != "ana@example.com" || got.Text != "Revocaste el acceso" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestResend_UpstreamErrorAndConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	rs, _ := NewResend(ResendConfig{APIKey: "re_key", BaseURL: srv.URL})
	if err := rs.Send(context.Background(), "ana@example.com", "x"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewResend(ResendConfig{}); !errors.Is(err, ErrResendNotConfigured) {
		t.Fatalf("expected ErrResendNotConfigured, got %v", err)
	}
}

func TestRouter_PicksChannel(t *testing.T) {
	var sms, email []string
	r := Router{
		SMS: port.SenderFunc(func(ctx context.Context, d, m string) error {
			sms = append(sms, d)
			return nil
		}),
		Email: port.SenderFunc(func(ctx context.Context, d, m string) error {
			email = append(email, d)
			return nil
		}),
	}
	ctx := context.Background()

	_ = r.Send(ctx, "+5491155550001", "hola")
	_ = r.Send(ctx, "ana@example.com", "hola")
	if err := r.Send(ctx, "nope", "hola"); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}

	if len(sms) != 1 || len(email) != 1 {
		t.Fatalf("sms=%v email=%v", sms, email)
	}
}

func TestRouter_MissingChannel(t *testing.T) {
	r := Router{SMS: NewLog(nil)}
	if err := r.Send(context.Background(), "ana@example.com", "hola"); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
	if err := r.Send(context.Background(), "+5491155550001", "hola"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
