// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/match-commentary/internal/commentary"
)

const (
	GeneratorOllama = "ollama"
	GeneratorGemini = "gemini"

	TTSOpenTTS = "opentts"
	TTSPolly   = "polly"
	TTSNone    = "none"
)

type Config struct {
	Addr            string        `env:"COMMENTARY_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"COMMENTARY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	DataDir         string        `env:"COMMENTARY_DATA_DIR"         envDefault:"data/bundles"`
	AudioDir        string        `env:"COMMENTARY_AUDIO_DIR"        envDefault:"data/audio"`
	ProfilePath     string        `env:"COMMENTARY_PROFILE"`
	RepairPolicy    string        `env:"COMMENTARY_REPAIR_POLICY"    envDefault:"fail-open"`
	PostgresDSN     string        `env:"COMMENTARY_POSTGRES_DSN"`
	AllowedOrigins  []string      `env:"COMMENTARY_WS_ORIGINS"       envSeparator:","`

	Generator   string `env:"COMMENTARY_GENERATOR"    envDefault:"ollama"`
	Model       string `env:"COMMENTARY_MODEL"`
	MemoryTurns int    `env:"COMMENTARY_MEMORY_TURNS" envDefault:"4"`
	OllamaURL   string `env:"OLLAMA_URL"              envDefault:"http://localhost:11434"`
	GeminiKey   string `env:"GEMINI_API_KEY"`

	TTS          string `env:"COMMENTARY_TTS" envDefault:"opentts"`
	OpenTTSURL   string `env:"OPENTTS_URL"    envDefault:"http://localhost:5500"`
	OpenTTSVoice string `env:"OPENTTS_VOICE"  envDefault:"coqui-tts:en_ljspeech"`
	PollyRegion  string `env:"AWS_REGION"`
	PollyVoice   string `env:"POLLY_VOICE"    envDefault:"Matthew"`
	PollyEngine  string `env:"POLLY_ENGINE"   envDefault:"neural"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV"`
}

// Load reads dotenv files (missing files are ignored; variables already set
// win) and then parses the environment.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Generator = strings.ToLower(strings.TrimSpace(c.Generator))
	c.TTS = strings.ToLower(strings.TrimSpace(c.TTS))

	switch c.Generator {
	case GeneratorOllama:
	case GeneratorGemini:
		if c.GeminiKey == "" {
			return errors.New("config: GEMINI_API_KEY is required for the gemini generator")
		}
	default:
		return fmt.Errorf("config: unknown generator %q", c.Generator)
	}

	switch c.TTS {
	case TTSOpenTTS, TTSPolly, TTSNone:
	default:
		return fmt.Errorf("config: unknown tts engine %q", c.TTS)
	}

	if _, err := commentary.ParseRepairPolicy(c.RepairPolicy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Policy returns the parsed repair policy. Validate has already vetted it.
func (c Config) Policy() commentary.RepairPolicy {
	p, _ := commentary.ParseRepairPolicy(c.RepairPolicy)
	return p
}
