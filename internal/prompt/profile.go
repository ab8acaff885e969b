package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfileYAML []byte

// Profile is the tunable half of prompt composition: what the generator is
// told it is, what it must never say, and how much context it gets.
type Profile struct {
	SystemPrompt  string   `yaml:"system_prompt"`
	BannedPhrases []string `yaml:"banned_phrases"`
	StyleExamples []string `yaml:"style_examples"`
	Limits        Limits   `yaml:"limits"`
}

type Limits struct {
	MaxEvents         int `yaml:"max_events"`
	MaxActions        int `yaml:"max_actions"`
	MaxSnapshotBytes  int `yaml:"max_snapshot_bytes"`
	MaxRepairExamples int `yaml:"max_repair_examples"`
}

// DefaultProfile returns the built-in profile.
func DefaultProfile() Profile {
	var p Profile
	if err := yaml.Unmarshal(defaultProfileYAML, &p); err != nil {
		panic(fmt.Sprintf("prompt: embedded profile: %v", err))
	}
	return p
}

// ParseProfile decodes YAML on top of the default profile, so an override only
// needs the fields it changes.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("prompt: decode profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads an override file. An empty path yields the default.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("prompt: %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) validate() error {
	l := p.Limits
	if l.MaxEvents < 1 || l.MaxActions < 0 || l.MaxSnapshotBytes < 0 || l.MaxRepairExamples < 0 {
		return fmt.Errorf("prompt: invalid limits %+v", l)
	}
	return nil
}
