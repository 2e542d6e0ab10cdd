package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
	"unicode/utf8"
)

// maxTTSChunk is the per-request text limit of the Translate TTS endpoint.
const maxTTSChunk = 200

type GoogleTTSClient struct {
	baseURL string
	client  *http.Client
}

func NewGoogleTTSClient() *GoogleTTSClient {
	base := os.Getenv("TTS_BASE_URL")
	if base == "" {
		base = "https://translate.google.com/translate_tts"
	}

	return &GoogleTTSClient{
		baseURL: base,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// TEXT → SPEECH
//
// Synthesize fetches MP3 audio for the text in the given voice (a short
// language code). Replies longer than one request allows are split on word
// boundaries; MP3 segments concatenate into a valid stream.
func (c *GoogleTTSClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	var out []byte
	for _, chunk := range splitTTSText(text, maxTTSChunk) {
		audio, err := c.fetchChunk(ctx, chunk, voice)
		if err != nil {
			return nil, err
		}
		out = append(out, audio...)
	}
	return out, nil
}

func (c *GoogleTTSClient) fetchChunk(ctx context.Context, text, voice string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s?ie=UTF-8&client=tw-ob&tl=%s&q=%s",
		c.baseURL, url.QueryEscape(voice), url.QueryEscape(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrSynthesis, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	return body, nil
}

// splitTTSText breaks text into chunks of at most limit bytes, preferring
// word boundaries and never splitting inside a rune.
func splitTTSText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if sp := lastSpace(text[:cut]); sp > 0 {
			cut = sp
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
		for len(text) > 0 && text[0] == ' ' {
			text = text[1:]
		}
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
