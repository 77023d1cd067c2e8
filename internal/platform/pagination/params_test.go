package pagination

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size %d, got %d", DefaultPageSize, params.PageSize)
	}
	if params.PageToken != "" {
		t.Fatalf("expected empty page token, got %q", params.PageToken)
	}
}

func TestParseCapsPageSize(t *testing.T) {
	values := url.Values{"page_size": []string{"500"}}
	params, err := Parse(values, Options{MaxPageSize: 25})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.PageSize != 25 {
		t.Fatalf("expected capped page size 25, got %d", params.PageSize)
	}
}

func TestParseRejectsBadPageSize(t *testing.T) {
	for _, raw := range []string{"0", "-5", "ten"} {
		values := url.Values{"page_size": []string{raw}}
		if _, err := Parse(values, Options{}); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("page_size %q: expected ErrInvalidPageSize, got %v", raw, err)
		}
	}
}

func TestParsePassesTokenThrough(t *testing.T) {
	values := url.Values{"page_token": []string{"  opaque-token  "}}
	params, err := Parse(values, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if params.PageToken != "opaque-token" {
		t.Fatalf("expected trimmed token, got %q", params.PageToken)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cursor := Cursor{
		Timestamp: time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC),
		ID:        "prod_01HZX3",
	}
	token, err := EncodeToken(cursor)
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if !decoded.Timestamp.Equal(cursor.Timestamp) || decoded.ID != cursor.ID {
		t.Fatalf("cursor mismatch: %+v", decoded)
	}
}

func TestDecodeTokenEmpty(t *testing.T) {
	cursor, err := DecodeToken("   ")
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if !cursor.Timestamp.IsZero() || cursor.ID != "" {
		t.Fatalf("expected zero cursor, got %+v", cursor)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"!!!", "bm90LWpzb24"} {
		if _, err := DecodeToken(raw); !errors.Is(err, ErrInvalidPageToken) {
			t.Fatalf("token %q: expected ErrInvalidPageToken, got %v", raw, err)
		}
	}
}
