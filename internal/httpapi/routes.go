package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/match-commentary/internal/commentary"
	"github.com/DoyleJ11/match-commentary/internal/logging"
	"github.com/DoyleJ11/match-commentary/internal/ws"
)

type Options struct {
	AudioDir       string
	OriginPatterns []string
	Logger         *zap.Logger
	// Level, when set, is served at /loglevel (GET to read, PUT {"level":"debug"} to change).
	Level *zap.AtomicLevel
}

func SetupRoutes(svc *commentary.Service, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Requests(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/audio/{file}", Audio(opts.AudioDir))
	if opts.Level != nil {
		r.Method(http.MethodGet, "/loglevel", opts.Level)
		r.Method(http.MethodPut, "/loglevel", opts.Level)
	}

	r.Post("/tts", Speak(svc, opts.AudioDir))
	r.Post("/generate", Generate(svc))

	r.Route("/matches", func(r chi.Router) {
		r.Post("/", CreateMatch(svc))
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/events", SubmitEvent(svc))
			r.Get("/commentary", GetCommentary(svc))
			r.Delete("/", EndMatch(svc))
			r.Get("/ws", ws.Handler(svc, ws.Options{OriginPatterns: opts.OriginPatterns, Logger: log}))
		})
	})

	// Routes kept for existing game clients; they act on the current match.
	r.Route("/comentary", func(r chi.Router) {
		r.Post("/AddNewGame", AddNewGame(svc))
		r.Post("/AddEvent", AddEvent(svc))
		r.Get("/GetLast", GetLast(svc))
	})
	r.Post("/api/Model/generate", Generate(svc)) // old path of /generate
	return r
}
