package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextValidator rejects or sanitizes message text before it is stored.
type TextValidator interface {
	Validate(ctx context.Context, text string) (string, error)
}

// BasicTextValidator trims whitespace and enforces a length bound. Content
// scanning belongs to a dedicated moderation service.
type BasicTextValidator struct {
	MaxLength int
}

func (v BasicTextValidator) Validate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("message text is empty: %w", ErrValidationFailed)
	}
	if v.MaxLength > 0 && utf8.RuneCountInString(text) > v.MaxLength {
		return "", fmt.Errorf("message text longer than %d characters: %w", v.MaxLength, ErrValidationFailed)
	}
	return text, nil
}
