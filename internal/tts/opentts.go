package tts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type OpenTTSConfig struct {
	BaseURL  string
	Voice    string
	AudioDir string
}

// OpenTTS renders WAV audio through an OpenTTS server.
type OpenTTS struct {
	cfg    OpenTTSConfig
	client *http.Client
}

func NewOpenTTS(cfg OpenTTSConfig, client *http.Client) *OpenTTS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5500"
	}
	if cfg.Voice == "" {
		cfg.Voice = "coqui-tts:en_ljspeech"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenTTS{cfg: cfg, client: client}
}

func (o *OpenTTS) Synthesize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	q := url.Values{}
	q.Set("voice", o.cfg.Voice)
	q.Set("text", text)
	endpoint := strings.TrimRight(o.cfg.BaseURL, "/") + "/api/tts?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("tts: build opentts request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tts: opentts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Engine: "opentts", Code: resp.StatusCode}
	}
	return writeAudio(o.cfg.AudioDir, "opentts", "wav", resp.Body)
}
