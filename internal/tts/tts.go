// Package tts turns final commentary into audio files served from the audio
// directory. A Synthesizer returns the file name, not a path.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyText = errors.New("tts: text must not be empty")

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Nop is used when speech is disabled.
type Nop struct{}

func (Nop) Synthesize(context.Context, string) (string, error) { return "", nil }

type StatusError struct {
	Engine string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tts: %s returned status %d", e.Engine, e.Code)
}

// writeAudio streams r into a uniquely named file under dir.
func writeAudio(dir, prefix, ext string, r io.Reader) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("tts: create audio dir: %w", err)
	}
	now := time.Now().UTC()
	stamp := fmt.Sprintf("%s%03d", now.Format("20060102_150405"), now.Nanosecond()/int(time.Millisecond))
	name := fmt.Sprintf("%s_%s_%s.%s", prefix, stamp, uuid.NewString()[:8], ext)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("tts: create audio file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("tts: write audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("tts: close audio file: %w", err)
	}
	return name, nil
}
