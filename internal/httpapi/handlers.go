package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/match-commentary/internal/commentary"
	"github.com/DoyleJ11/match-commentary/internal/match"
	"github.com/DoyleJ11/match-commentary/internal/session"
	"github.com/DoyleJ11/match-commentary/internal/tts"
	pub "github.com/DoyleJ11/match-commentary/pkg/types"
)

// maxBody caps event payloads, compressed or not.
const maxBody = 100 << 20

var errTooLarge = errors.New("request body too large")

func CreateMatch(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.StartMatch(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pub.MatchCreated{MatchID: id})
	}
}

func EndMatch(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.EndMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func SubmitEvent(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		submit(w, r, svc, chi.URLParam(r, "id"), http.StatusAccepted)
	}
}

func GetCommentary(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poll(w, r, svc, chi.URLParam(r, "id"))
	}
}

// AddEvent buffers a notification for the current match, starting one if
// none is running. A body that does not parse leaves the registry alone.
func AddEvent(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseEvent(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		id, err := svc.CurrentMatch(r.Context(), true)
		if err != nil {
			writeError(w, err)
			return
		}
		accept(w, r, svc, id, req, http.StatusOK)
	}
}

// AddNewGame replaces the current match with a fresh one.
func AddNewGame(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.RestartCurrent(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pub.MatchCreated{MatchID: id})
	}
}

func GetLast(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.CurrentMatch(r.Context(), false)
		if err != nil {
			writeError(w, err)
			return
		}
		poll(w, r, svc, id)
	}
}

// Speak synthesizes the posted text. The audio comes back as the body;
// 204 means speech is disabled.
func Speak(svc *commentary.Service, audioDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in pub.SpeakRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(in.Text) == "" {
			writeError(w, fmt.Errorf("%w: text is required", match.ErrMalformedInput))
			return
		}
		name, err := svc.Speak(r.Context(), in.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		if name == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("X-Audio-File", name)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		http.ServeFile(w, r, filepath.Join(audioDir, name))
	}
}

// Generate passes a prompt straight to the generator.
func Generate(svc *commentary.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in pub.GenerateRequest
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, err)
			return
		}
		if strings.TrimSpace(in.Prompt) == "" || strings.TrimSpace(in.Model) == "" {
			writeError(w, fmt.Errorf("%w: prompt and model are required", match.ErrMalformedInput))
			return
		}
		out, err := svc.Generate(r.Context(), in.Prompt, in.Model)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pub.GenerateResponse{Response: out})
	}
}

func submit(w http.ResponseWriter, r *http.Request, svc *commentary.Service, matchID string, status int) {
	req, err := parseEvent(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	accept(w, r, svc, matchID, req, status)
}

func parseEvent(w http.ResponseWriter, r *http.Request) (match.Request, error) {
	body, err := readBody(w, r)
	if err != nil {
		return match.Request{}, err
	}
	return match.ParseRequest(body)
}

func accept(w http.ResponseWriter, r *http.Request, svc *commentary.Service, matchID string, req match.Request, status int) {
	if err := svc.Submit(r.Context(), matchID, req); err != nil {
		writeError(w, err)
		return
	}
	resp := pub.Accepted{MatchID: matchID}
	if sess, err := svc.Session(r.Context(), matchID); err == nil {
		resp.PendingActions = sess.PendingActions()
	}
	writeJSON(w, status, resp)
}

func poll(w http.ResponseWriter, r *http.Request, svc *commentary.Service, matchID string) {
	res, err := svc.Poll(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentary(res))
}

// Audio serves synthesized files by bare name.
func Audio(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "file")
		if dir == "" || name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	var src io.Reader = http.MaxBytesReader(w, r.Body, maxBody)
	if strings.EqualFold(strings.TrimSpace(r.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", match.ErrMalformedInput, err)
		}
		defer zr.Close()
		src = zr
	}

	body, err := io.ReadAll(io.LimitReader(src, maxBody+1))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, errTooLarge
	case err != nil:
		return nil, fmt.Errorf("%w: read body: %v", match.ErrMalformedInput, err)
	case len(body) > maxBody:
		return nil, errTooLarge
	}
	return body, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", match.ErrMalformedInput, err)
	}
	return nil
}

func toCommentary(res commentary.Result) pub.Commentary {
	events := res.Events
	if events == nil {
		events = []string{}
	}
	return pub.Commentary{
		MatchID:     res.MatchID,
		Commentary:  res.Commentary,
		AudioFile:   res.AudioFile,
		Events:      events,
		Reason:      res.Reason,
		FinalReason: res.FinalReason,
		Repaired:    res.Repaired,
		Filler:      res.Filler,
		BundleID:    res.BundleID,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrMalformedInput), errors.Is(err, tts.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, commentary.ErrUnknownMatch):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoSnapshot), errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, commentary.ErrHubStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), pub.Error{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
