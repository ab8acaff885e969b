// Package audit records what the generator was asked and what it said, in a
// form whose integrity can be checked later.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrHashMismatch = errors.New("audit: bundle hash does not match its content")

// Bundle is one pipeline run. Hash covers every other field.
type Bundle struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Prompt     string          `json:"prompt"`
	Whitelist  string          `json:"whitelist"`
	Snapshot   json.RawMessage `json:"snapshot"`
	Commentary string          `json:"commentary"`
	Hash       string          `json:"hash"`
}

type Store interface {
	Save(ctx context.Context, b Bundle) error
}

// Build assembles and hashes a bundle. CreatedAt is kept at millisecond
// precision in UTC so it survives storage round trips unchanged.
func Build(sessionID, prompt, whitelist string, snapshot any, commentary string, now time.Time) (Bundle, error) {
	snap, err := marshal(snapshot)
	if err != nil {
		return Bundle{}, err
	}
	b := Bundle{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
		Prompt:     prompt,
		Whitelist:  whitelist,
		Snapshot:   snap,
		Commentary: commentary,
	}
	if b.Hash, err = b.ComputeHash(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// ComputeHash hashes the canonical form of the bundle without its hash field.
func (b Bundle) ComputeHash() (string, error) {
	b.Hash = ""
	raw, err := marshal(b)
	if err != nil {
		return "", err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("audit: hash: %w", err)
	}
	delete(fields, "hash")
	return Hash(fields)
}

// Verify re-hashes the bundle and compares it with the stored hash.
func Verify(b Bundle) error {
	got, err := b.ComputeHash()
	if err != nil {
		return err
	}
	if got != b.Hash {
		return fmt.Errorf("%w: stored %s, computed %s", ErrHashMismatch, b.Hash, got)
	}
	return nil
}
