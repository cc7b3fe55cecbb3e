package repository

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Cursor is the last key returned by a page. It travels to clients as an opaque token.
type Cursor struct {
	UserID   string     `json:"u,omitempty"`
	TradeID  string     `json:"t,omitempty"`
	OpenDate *time.Time `json:"d,omitempty"`
}

func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor accepts both URL-safe and standard base64. An empty token yields a zero cursor.
func DecodeCursor(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return Cursor{}, ErrInvalidCursor
		}
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
