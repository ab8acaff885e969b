// Package types holds the JSON bodies of the public HTTP API.
package types

// MatchCreated is returned by POST /matches and the legacy AddNewGame route.
type MatchCreated struct {
	MatchID string `json:"match_id"`
}

// Commentary is the result of one commentary cycle. An empty Commentary
// with a nil error means the cycle ran but nothing was worth saying.
type Commentary struct {
	MatchID     string   `json:"match_id"`
	Commentary  string   `json:"commentary"`
	AudioFile   string   `json:"audio_file,omitempty"`
	Events      []string `json:"events"`
	Reason      string   `json:"reason,omitempty"`
	FinalReason string   `json:"final_reason,omitempty"`
	Repaired    bool     `json:"repaired"`
	Filler      bool     `json:"filler,omitempty"`
	BundleID    string   `json:"bundle_id,omitempty"`
}

type Accepted struct {
	MatchID        string `json:"match_id"`
	PendingActions int    `json:"pending_actions"`
}

type Error struct {
	Error string `json:"error"`
}

// SpeakRequest is the body of POST /tts.
type SpeakRequest struct {
	Text string `json:"text"`
}

// GenerateRequest is the body of POST /generate. Both fields are required.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}
