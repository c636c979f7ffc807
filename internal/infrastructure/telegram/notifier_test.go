package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishSummary(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
	}))
	defer server.Close()

	n := NewNotifier("token", "42")
	n.apiBase = server.URL
	n.client = server.Client()

	if err := n.PublishSummary(context.Background(), "*run done*"); err != nil {
		t.Fatalf("PublishSummary error: %v", err)
	}
	if gotPath != "/bottoken/sendMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotChat != "42" || gotText != "*run done*" {
		t.Fatalf("unexpected form: chat=%s text=%s", gotChat, gotText)
	}
}

func TestPublishSummaryMisconfigured(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "42").PublishSummary(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without bot token")
	}
}

func TestPublishSummaryHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	n := NewNotifier("token", "42")
	n.apiBase = server.URL
	if err := n.PublishSummary(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on non-200")
	}
}
