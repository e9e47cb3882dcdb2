package commongames

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	// cursorPrefix separates page tokens from custom IDs of other controls.
	cursorPrefix = "cg:"
	// MaxTokenLen is Discord's limit for a component custom_id.
	MaxTokenLen = 100
	// MaxPage keeps page*PageSize and page+1 from overflowing.
	MaxPage = math.MaxInt/PageSize - 1
)

// Cursor addresses one page of the result stored under Key.
type Cursor struct {
	Page int    `json:"page"`
	Key  string `json:"key"`
}

func NewCursor(page int, key string) Cursor { return Cursor{Page: page, Key: key} }

// Previous is the cursor one page back; false on page 0.
func (c Cursor) Previous() (Cursor, bool) {
	if c.Page <= 0 {
		return Cursor{}, false
	}
	return Cursor{Page: c.Page - 1, Key: c.Key}, true
}

// Next is always one page forward. Whether that page has content is decided on load.
// Past MaxPage the page stays above the bound, so Encode rejects it.
func (c Cursor) Next() Cursor {
	if c.Page > MaxPage {
		return c
	}
	return Cursor{Page: c.Page + 1, Key: c.Key}
}

// Encode serialises c into a control identifier.
func Encode(c Cursor) (string, error) {
	if c.Page < 0 || c.Page > MaxPage || c.Key == "" || !utf8.ValidString(c.Key) {
		return "", ErrInvalidCursor
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	token := cursorPrefix + string(raw)
	if len(token) > MaxTokenLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTokenTooLong, len(token))
	}
	return token, nil
}

// Decode is the inverse of Encode. Tokens from unrelated controls fail with ErrInvalidCursor.
func Decode(token string) (Cursor, error) {
	body, ok := strings.CutPrefix(token, cursorPrefix)
	if !ok {
		return Cursor{}, ErrInvalidCursor
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	var raw struct {
		Page *int    `json:"page"`
		Key  *string `json:"key"`
	}
	if err := dec.Decode(&raw); err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if dec.More() {
		return Cursor{}, ErrInvalidCursor
	}
	if raw.Page == nil || raw.Key == nil || *raw.Page < 0 || *raw.Page > MaxPage || *raw.Key == "" {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{Page: *raw.Page, Key: *raw.Key}, nil
}

// String renders the token, or "" when c cannot be encoded.
func (c Cursor) String() string {
	s, err := Encode(c)
	if err != nil {
		return ""
	}
	return s
}
