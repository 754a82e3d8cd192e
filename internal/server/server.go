package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"paypromise/internal/agent"
	"paypromise/internal/api"
	"paypromise/internal/config"
	"paypromise/internal/convlog"
	"paypromise/internal/gemini"
	"paypromise/internal/ledger"
	"paypromise/internal/notify"
	"paypromise/internal/payments"
	"paypromise/internal/session"
	"paypromise/internal/speech"
	"paypromise/internal/store"
)

type Server struct {
	http    *http.Server
	closeDB func() error
	logger  *zap.Logger
}

// NewLogger builds the process logger and installs it as zap's global.
func NewLogger(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	backend, closeDB, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	l := ledger.New(backend)

	model, err := gemini.New(ctx, cfg.GoogleAPIKey, cfg.ModelName)
	if err != nil {
		closeDB()
		return nil, err
	}

	var notifier agent.Notifier = notify.Noop{}
	if cfg.AlertsEnabled() {
		notifier = notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.AlertPhoneNumber)
	}

	opts := []agent.Option{
		agent.WithNotifier(notifier),
		agent.WithTranscript(convlog.New(cfg.ConversationLog)),
	}
	if cfg.SpeechEnabled() {
		opts = append(opts, agent.WithSpeaker(speech.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID)))
	}

	deps := api.Deps{
		Ledger:   l,
		Sessions: session.NewStore(),
		Agent:    agent.New(l, model, opts...),
		Notifier: notifier,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if key := cfg.StripeKey(); key != "" {
		deps.Payments = payments.NewStripe(key, cfg.PaymentCurrency, cfg.PaymentRedirectURL)
	}

	logger.Info("server configured",
		zap.String("env", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("model", cfg.ModelName),
		zap.Bool("speech", cfg.SpeechEnabled()),
		zap.Bool("alerts", cfg.AlertsEnabled()),
		zap.Bool("payments", deps.Payments != nil),
	)

	return &Server{
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           api.NewRouter(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		closeDB: closeDB,
		logger:  logger,
	}, nil
}

func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.http.Shutdown(ctx)
	if cerr := s.closeDB(); cerr != nil && err == nil {
		err = cerr
	}
	s.logger.Sync()
	return err
}
