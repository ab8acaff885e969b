package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/match-commentary/internal/audit"
	"github.com/DoyleJ11/match-commentary/internal/commentary"
	"github.com/DoyleJ11/match-commentary/internal/config"
	"github.com/DoyleJ11/match-commentary/internal/httpapi"
	"github.com/DoyleJ11/match-commentary/internal/hub"
	"github.com/DoyleJ11/match-commentary/internal/llm"
	"github.com/DoyleJ11/match-commentary/internal/logging"
	"github.com/DoyleJ11/match-commentary/internal/prompt"
	"github.com/DoyleJ11/match-commentary/internal/tts"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, level, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	profile, err := prompt.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg, profile)
	if err != nil {
		return err
	}
	synth := newSynthesizer(cfg)

	stores := audit.MultiStore{audit.NewFileStore(cfg.DataDir)}
	if cfg.PostgresDSN != "" {
		pg, perr := audit.OpenPostgres(ctx, cfg.PostgresDSN)
		if perr != nil {
			return perr
		}
		defer func() { err = multierr.Append(err, pg.Close()) }()
		stores = append(stores, pg)
	}

	h := hub.NewHub(ctx)
	svc := commentary.NewService(h, gen, synth, stores, commentary.Config{
		Model:   cfg.Model,
		Policy:  cfg.Policy(),
		Profile: profile,
	}, log)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(svc, httpapi.Options{
			AudioDir:       cfg.AudioDir,
			OriginPatterns: cfg.AllowedOrigins,
			Logger:         log,
			Level:          &level,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("generator", cfg.Generator),
			zap.String("tts", cfg.TTS),
			zap.String("repair_policy", string(cfg.Policy())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		h.Shutdown()
		return err
	})
	return g.Wait()
}

func newGenerator(ctx context.Context, cfg config.Config, profile prompt.Profile) (llm.Generator, error) {
	switch cfg.Generator {
	case config.GeneratorGemini:
		return llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:       cfg.GeminiKey,
			Model:        cfg.Model,
			SystemPrompt: profile.SystemPrompt,
			MemoryTurns:  cfg.MemoryTurns,
		})
	default:
		return llm.NewOllama(llm.OllamaConfig{
			BaseURL:      cfg.OllamaURL,
			Model:        cfg.Model,
			SystemPrompt: profile.SystemPrompt,
			MemoryTurns:  cfg.MemoryTurns,
			Options:      llm.DefaultOllamaOptions(),
		}, nil), nil
	}
}

func newSynthesizer(cfg config.Config) tts.Synthesizer {
	switch cfg.TTS {
	case config.TTSPolly:
		return tts.NewPolly(tts.PollyConfig{
			Region:   cfg.PollyRegion,
			VoiceID:  cfg.PollyVoice,
			Engine:   cfg.PollyEngine,
			AudioDir: cfg.AudioDir,
		})
	case config.TTSNone:
		return tts.Nop{}
	default:
		return tts.NewOpenTTS(tts.OpenTTSConfig{
			BaseURL:  cfg.OpenTTSURL,
			Voice:    cfg.OpenTTSVoice,
			AudioDir: cfg.AudioDir,
		}, nil)
	}
}
