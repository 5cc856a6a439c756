package validators

import (
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?limit=10", nil)
	got, err := ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected 10 got %d", got)
	}
}

func TestParseQueryIntDefaultsWhenAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/things", nil)
	got, err := ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected default 25 got %d", got)
	}
}

func TestParseQueryIntRejectsOutOfRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?limit=500", nil)
	_, err := ParseQueryInt(r, "limit", 25, 1, 100)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryUUIDRejectsGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?user_id=nope", nil)
	_, err := ParseQueryUUID(r, "user_id")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/things?published=true", nil)
	got, err := ParseQueryBool(r, "published")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || !*got {
		t.Fatalf("expected true got %v", got)
	}
}

func TestSanitizeStringTruncates(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
