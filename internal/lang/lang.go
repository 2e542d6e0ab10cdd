package lang

import (
	"fmt"
	"strings"
)

// Language is the conversation language selected by the client.
// Every per-turn language value (STT locale, reply instruction, TTS voice)
// is derived from this single value, so they cannot drift apart.
type Language string

const (
	Indonesian Language = "id"
	English    Language = "en"
)

// Default is what the UI preselects.
const Default = Indonesian

// Parse accepts a short code ("id", "en") or a full locale tag
// ("id-ID", "en-US") and returns the matching Language.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.SplitN(s, "-", 2)[0]) {
	case "id":
		return Indonesian, nil
	case "en":
		return English, nil
	case "":
		return Default, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// Short returns the two-letter code used for reply generation and TTS.
func (l Language) Short() string {
	return string(l)
}

// Locale returns the full language-region tag used for speech recognition.
func (l Language) Locale() string {
	if l == English {
		return "en-US"
	}
	return "id-ID"
}

// Voice returns the synthesis voice tag. The Translate TTS endpoint keys
// voices by the short language code.
func (l Language) Voice() string {
	return l.Short()
}

// Name returns the display name shown in the language selector.
func (l Language) Name() string {
	if l == English {
		return "English"
	}
	return "Indonesia"
}
