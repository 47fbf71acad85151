package domain

import (
	"github.com/google/uuid"
)

// LangText maps a language code ("ar", "en", ...) to display text.
type LangText map[string]string

// Text returns the text for lang, falling back to Arabic, then English, then any populated entry.
func (t LangText) Text(lang string) string {
	if s := t[lang]; s != "" {
		return s
	}
	if s := t["ar"]; s != "" {
		return s
	}
	if s := t["en"]; s != "" {
		return s
	}
	for _, s := range t {
		if s != "" {
			return s
		}
	}
	return ""
}

// IsEmpty reports whether no language carries text.
func (t LangText) IsEmpty() bool {
	for _, s := range t {
		if s != "" {
			return false
		}
	}
	return true
}

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}
