package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
)

func TestClientCompleteRequest(t *testing.T) {
	const expectedURL = "http://llm.test/v1/chat/completions"
	respBody := `{"model":"gpt-4o-mini","choices":[{"message":{"content":"Rewrite: be specific."}}],"usage":{"prompt_tokens":42,"completion_tokens":12}}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload CompletionRequest
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload.Model != "gpt-4o-mini" {
			t.Fatalf("unexpected model %q", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[1].Content != "make this prompt better" {
			t.Fatalf("unexpected messages %+v", payload.Messages)
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient("test-key", WithBaseURL("http://llm.test/v1"), WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "You improve prompts."},
		{Role: "user", Content: "make this prompt better"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("authorization header missing")
	}
	if result.Content != "Rewrite: be specific." {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.InputTokens != 42 || result.OutputTokens != 12 {
		t.Fatalf("unexpected usage %+v", result)
	}
}

func TestClientCompleteUpstreamError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader(`{"error":"overloaded"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestClientCompleteRequiresMessages(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Complete(context.Background(), nil)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
