package httpapi

import (
	"net/http"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
)

type Config struct {
	ServiceName string
	// TurnTimeout bounds one streamed chat answer.
	TurnTimeout time.Duration
	LogLevel    string
	LogJSON     bool
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "pearl-monad",
		TurnTimeout: 55 * time.Second,
		LogLevel:    "info",
		LogJSON:     true,
	}
}

type handlers struct {
	chat     input.ChatService
	accounts input.AccountService
	logger   output.LoggerPort
	cfg      Config
}

func NewRouter(chatSvc input.ChatService, accounts input.AccountService, logger output.LoggerPort, cfg Config) http.Handler {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultConfig().TurnTimeout
	}
	h := &handlers{chat: chatSvc, accounts: accounts, logger: logger.Named("http"), cfg: cfg}

	accessLog := httplog.NewLogger(cfg.ServiceName, httplog.Options{
		JSON:     cfg.LogJSON,
		Concise:  true,
		LogLevel: cfg.LogLevel,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.postChat)
		r.Get("/chat", h.getChat)
		r.Get("/prompt-usage", h.getPromptUsage)
		r.Post("/prompt-usage", h.postPromptUsage)
		r.Post("/users", h.postUser)
		r.Post("/wallet", h.postWallet)
	})

	return r
}
