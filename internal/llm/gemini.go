package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the Gemini backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
	MemoryTurns  int
}

type Gemini struct {
	cfg    GeminiConfig
	models contentGenerator
	mem    *memory
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return NewGeminiWithClient(cfg, client.Models), nil
}

func NewGeminiWithClient(cfg GeminiConfig, models contentGenerator) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MemoryTurns == 0 {
		cfg.MemoryTurns = DefaultMemoryTurns
	}
	return &Gemini{cfg: cfg, models: models, mem: newMemory(cfg.MemoryTurns)}
}

func (g *Gemini) Chat(ctx context.Context, sessionID, userMessage, systemSuffix, model string) (string, error) {
	if model == "" {
		model = g.cfg.Model
	}
	system := g.cfg.SystemPrompt + "\n" + systemSuffix
	key := model + "\n" + system
	past, _ := g.mem.recall(sessionID, key)

	contents := make([]*genai.Content, 0, len(past)+1)
	for _, m := range past {
		var role genai.Role = genai.RoleUser
		if m.Role == roleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userMessage, genai.RoleUser))

	resp, err := g.models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.25),
		TopP:              genai.Ptr[float32](0.9),
		StopSequences:     []string{"###"},
	})
	if err != nil {
		return "", fmt.Errorf("llm: gemini generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("llm: gemini returned no response")
	}
	reply := strings.TrimSpace(resp.Text())

	g.mem.record(sessionID, key, userMessage, reply, nil)
	return reply, nil
}

func (g *Gemini) Reset(sessionID string) { g.mem.forget(sessionID) }
