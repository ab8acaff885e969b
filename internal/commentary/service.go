// Package commentary runs the per-match pipeline: diff the buffered snapshot
// against the last one commented on, prompt the generator, enforce the
// output contract, repair once, synthesize speech and publish.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/match-commentary/internal/audit"
	"github.com/DoyleJ11/match-commentary/internal/engine"
	"github.com/DoyleJ11/match-commentary/internal/feed"
	"github.com/DoyleJ11/match-commentary/internal/hub"
	"github.com/DoyleJ11/match-commentary/internal/llm"
	"github.com/DoyleJ11/match-commentary/internal/match"
	"github.com/DoyleJ11/match-commentary/internal/prompt"
	"github.com/DoyleJ11/match-commentary/internal/session"
	"github.com/DoyleJ11/match-commentary/internal/tts"
	"github.com/DoyleJ11/match-commentary/internal/validate"
)

var (
	ErrUnknownMatch = errors.New("unknown match")
	ErrHubStopped   = errors.New("match registry stopped")
)

type Config struct {
	Model   string
	Policy  RepairPolicy
	Profile prompt.Profile
}

// Result describes one poll.
type Result struct {
	MatchID     string
	Commentary  string
	AudioFile   string
	Events      []string
	Reason      string // first validation verdict
	FinalReason string // verdict on the text actually returned
	Repaired    bool
	Filler      bool
	BundleID    string
}

type Service struct {
	hub      *hub.Hub
	gen      llm.Generator
	synth    tts.Synthesizer
	store    audit.Store
	composer *prompt.Composer
	repairer *Repairer
	profile  prompt.Profile
	policy   RepairPolicy
	model    string
	log      *zap.Logger
	now      func() time.Time
}

// NewService wires the pipeline. store may be nil to disable auditing.
func NewService(h *hub.Hub, gen llm.Generator, synth tts.Synthesizer, store audit.Store, cfg Config, log *zap.Logger) *Service {
	if cfg.Policy == "" {
		cfg.Policy = PolicyFailOpen
	}
	if synth == nil {
		synth = tts.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		hub:      h,
		gen:      gen,
		synth:    synth,
		store:    store,
		composer: prompt.NewComposer(cfg.Profile),
		repairer: NewRepairer(gen, cfg.Model, cfg.Profile.StyleExamples, cfg.Profile.Limits.MaxRepairExamples),
		profile:  cfg.Profile,
		policy:   cfg.Policy,
		model:    cfg.Model,
		log:      log,
		now:      time.Now,
	}
}

// StartMatch opens a new session and makes it the current match.
func (s *Service) StartMatch(ctx context.Context) (string, error) {
	sess := s.hub.Create(ctx, "")
	if sess == nil {
		return "", ErrHubStopped
	}
	s.log.Info("match started", zap.String("match_id", sess.ID))
	return sess.ID, nil
}

// CurrentMatch returns the most recently started match. With start set, a
// match is started when there is none.
func (s *Service) CurrentMatch(ctx context.Context, start bool) (string, error) {
	if sess := s.hub.Current(ctx); sess != nil {
		return sess.ID, nil
	}
	if start {
		return s.StartMatch(ctx)
	}
	return "", ErrUnknownMatch
}

// RestartCurrent ends the current match, if any, and starts a fresh one in
// its place.
func (s *Service) RestartCurrent(ctx context.Context) (string, error) {
	if sess := s.hub.Current(ctx); sess != nil {
		if err := s.EndMatch(ctx, sess.ID); err != nil && !errors.Is(err, ErrUnknownMatch) {
			return "", err
		}
	}
	return s.StartMatch(ctx)
}

// EndMatch drops the session and the generator's memory of it.
func (s *Service) EndMatch(ctx context.Context, matchID string) error {
	if !s.hub.Remove(ctx, matchID) {
		return ErrUnknownMatch
	}
	s.forget(matchID)
	s.log.Info("match ended", zap.String("match_id", matchID))
	return nil
}

func (s *Service) forget(sessionID string) {
	if r, ok := s.gen.(interface{ Reset(string) }); ok {
		r.Reset(sessionID)
	}
}

// Generate sends one prompt straight to the generator, outside any match.
// Nothing is remembered between calls.
func (s *Service) Generate(ctx context.Context, text, model string) (string, error) {
	id := "generate-" + uuid.NewString()
	defer s.forget(id)
	out, err := s.gen.Chat(ctx, id, text, "", model)
	if err != nil {
		return "", fmt.Errorf("commentary: generate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Speak synthesizes arbitrary text and returns the audio file name, which is
// empty when speech is disabled.
func (s *Service) Speak(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", tts.ErrEmptyText
	}
	name, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("commentary: synthesize: %w", err)
	}
	return name, nil
}

func (s *Service) Session(ctx context.Context, matchID string) (*session.Session, error) {
	sess := s.hub.Get(ctx, matchID)
	if sess == nil {
		return nil, ErrUnknownMatch
	}
	return sess, nil
}

// Submit buffers a notification without running the pipeline.
func (s *Service) Submit(ctx context.Context, matchID string, req match.Request) error {
	sess, err := s.Session(ctx, matchID)
	if err != nil {
		return err
	}
	sess.Submit(req)
	return nil
}

// Poll runs one full cycle against the latest buffered snapshot. Nothing in
// the session changes unless the cycle succeeds.
func (s *Service) Poll(ctx context.Context, matchID string) (Result, error) {
	sess, err := s.Session(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	cyc, err := sess.Begin()
	if err != nil {
		return Result{}, err
	}
	log := s.log.With(zap.String("match_id", matchID))

	res, userMsg, sidecar, err := s.run(ctx, matchID, cyc)
	if err != nil {
		sess.Abort(cyc)
		log.Warn("commentary cycle aborted", zap.Error(err))
		return Result{}, err
	}
	sess.Commit(cyc)

	if s.store != nil {
		res.BundleID = s.record(ctx, log, matchID, userMsg, sidecar, cyc.Current, res.Commentary)
	}
	if res.Commentary != "" {
		sess.Feed().Send(feed.Publish{Update: feed.Update{
			MatchID:    matchID,
			Commentary: res.Commentary,
			AudioFile:  res.AudioFile,
			Events:     res.Events,
			BundleID:   res.BundleID,
			At:         s.now().UTC(),
		}})
	}

	log.Info("commentary ready",
		zap.Int("events", len(res.Events)),
		zap.String("reason", res.Reason),
		zap.String("final_reason", res.FinalReason),
		zap.Bool("repaired", res.Repaired),
		zap.Bool("filler", res.Filler),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, matchID string, cyc session.Cycle) (Result, string, string, error) {
	events := engine.PrioritizeAll(engine.Diff(cyc.Previous, cyc.Current))
	userMsg := s.composer.Compose(prompt.Input{
		Previous: cyc.Previous,
		Current:  cyc.Current,
		Events:   events,
		Actions:  cyc.Actions,
		First:    cyc.First,
	})
	wl := prompt.BuildWhitelist(cyc.Current, s.profile.BannedPhrases)
	sidecar := wl.Render()

	res := Result{MatchID: matchID, Filler: userMsg == prompt.FillerInstruction}
	for _, e := range events {
		res.Events = append(res.Events, e.String())
	}

	text, err := s.gen.Chat(ctx, matchID, userMsg, sidecar, s.model)
	if err != nil {
		return Result{}, "", "", fmt.Errorf("commentary: generate: %w", err)
	}

	v := validate.New(wl.Teams, wl.Players, wl.Roles, wl.Banned)
	first := v.Validate(text)
	res.Reason, res.FinalReason = first.Reason, first.Reason

	if !first.OK {
		repaired, err := s.repairer.Repair(ctx, matchID, text, wl)
		if err != nil {
			return Result{}, "", "", fmt.Errorf("commentary: repair: %w", err)
		}
		res.Repaired = true
		text = s.applyPolicy(v, repaired, &res)
	}
	res.Commentary = strings.TrimSpace(text)

	if res.Commentary != "" {
		audio, err := s.synth.Synthesize(ctx, res.Commentary)
		if err != nil {
			return Result{}, "", "", fmt.Errorf("commentary: synthesize: %w", err)
		}
		res.AudioFile = audio
	}
	return res, userMsg, sidecar, nil
}

func (s *Service) applyPolicy(v *validate.Validator, repaired string, res *Result) string {
	second := v.Validate(repaired)
	res.FinalReason = second.Reason
	if second.OK {
		return repaired
	}
	switch s.policy {
	case PolicySuppress:
		return ""
	case PolicySalvage:
		kept := v.FilterCleanLines(repaired)
		if kept != "" {
			res.FinalReason = validate.ReasonOK
		}
		return kept
	default:
		return repaired
	}
}

// record writes the audit bundle. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, log *zap.Logger, matchID, userMsg, sidecar string, snap *match.Snapshot, text string) string {
	b, err := audit.Build(matchID, userMsg, sidecar, snap, text, s.now())
	if err != nil {
		log.Error("build audit bundle", zap.Error(err))
		return ""
	}
	if err := s.store.Save(context.WithoutCancel(ctx), b); err != nil {
		log.Error("save audit bundle", zap.String("bundle_id", b.ID), zap.Error(err))
		return ""
	}
	return b.ID
}
