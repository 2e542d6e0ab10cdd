package lang

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"id", Indonesian, false},
		{"en", English, false},
		{"id-ID", Indonesian, false},
		{"en-US", English, false},
		{"EN", English, false},
		{"", Default, false},
		{"fr", "", true},
		{"english", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDerivedTagsAgree(t *testing.T) {
	tests := []struct {
		lang   Language
		locale string
		short  string
	}{
		{Indonesian, "id-ID", "id"},
		{English, "en-US", "en"},
	}

	for _, tt := range tests {
		if got := tt.lang.Locale(); got != tt.locale {
			t.Errorf("%s.Locale() = %q, want %q", tt.lang, got, tt.locale)
		}
		if got := tt.lang.Short(); got != tt.short {
			t.Errorf("%s.Short() = %q, want %q", tt.lang, got, tt.short)
		}
		// voice must always match the reply language
		if tt.lang.Voice() != tt.lang.Short() {
			t.Errorf("%s: voice %q does not match short code %q",
				tt.lang, tt.lang.Voice(), tt.lang.Short())
		}
	}
}
