package repository

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	token := EncodeCursor(Cursor{UserID: "u1", TradeID: "t9", OpenDate: &at})
	if token == "" {
		t.Fatal("expected token")
	}
	got, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u1" || got.TradeID != "t9" || got.OpenDate == nil || !got.OpenDate.Equal(at) {
		t.Fatalf("unexpected cursor %+v", got)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	got, err := DecodeCursor("  ")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (Cursor{}) {
		t.Fatalf("expected zero cursor, got %+v", got)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24"} {
		if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("token %q: expected ErrInvalidCursor, got %v", token, err)
		}
	}
}
