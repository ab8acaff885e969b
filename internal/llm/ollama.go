package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type OllamaConfig struct {
	BaseURL      string
	Model        string
	SystemPrompt string
	KeepAlive    string
	MemoryTurns  int
	Options      OllamaOptions
}

type OllamaOptions struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	NumCtx        int      `json:"num_ctx"`
	Stop          []string `json:"stop,omitempty"`
}

func DefaultOllamaOptions() OllamaOptions {
	return OllamaOptions{
		Temperature:   0.25,
		TopP:          0.9,
		RepeatPenalty: 1.15,
		NumCtx:        8192,
		Stop:          []string{"###"},
	}
}

type ollamaChatRequest struct {
	Model     string        `json:"model"`
	Messages  []Message     `json:"messages"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Context   []int         `json:"context,omitempty"`
	Options   OllamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Model   string   `json:"model"`
	Message *Message `json:"message"`
	Done    bool     `json:"done"`
	Context []int    `json:"context"`
}

// Ollama is a non-streaming client for the /api/chat endpoint.
type Ollama struct {
	cfg    OllamaConfig
	client *http.Client
	mem    *memory
}

func NewOllama(cfg OllamaConfig, client *http.Client) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1:8b"
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = "10m"
	}
	if cfg.Options.NumCtx == 0 {
		cfg.Options = DefaultOllamaOptions()
	}
	if cfg.MemoryTurns == 0 {
		cfg.MemoryTurns = DefaultMemoryTurns
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Ollama{cfg: cfg, client: client, mem: newMemory(cfg.MemoryTurns)}
}

func (o *Ollama) Chat(ctx context.Context, sessionID, userMessage, systemSuffix, model string) (string, error) {
	if model == "" {
		model = o.cfg.Model
	}
	system := o.cfg.SystemPrompt + "\n" + systemSuffix
	key := model + "\n" + system
	past, ctxTokens := o.mem.recall(sessionID, key)

	msgs := make([]Message, 0, len(past)+2)
	msgs = append(msgs, Message{Role: roleSystem, Content: system})
	msgs = append(msgs, past...)
	msgs = append(msgs, Message{Role: roleUser, Content: userMessage})

	body, err := json.Marshal(ollamaChatRequest{
		Model:     model,
		Messages:  msgs,
		KeepAlive: o.cfg.KeepAlive,
		Context:   ctxTokens,
		Options:   o.cfg.Options,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.cfg.BaseURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: ollama chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{Backend: "ollama", Code: resp.StatusCode, Body: strings.TrimSpace(string(sample))}
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("llm: decode ollama response: %w", err)
	}
	var reply string
	if out.Message != nil {
		reply = strings.TrimSpace(out.Message.Content)
	}

	o.mem.record(sessionID, key, userMessage, reply, out.Context)
	return reply, nil
}

// Reset forgets a session's conversation.
func (o *Ollama) Reset(sessionID string) { o.mem.forget(sessionID) }
