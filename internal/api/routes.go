package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	h "paypromise/internal/api/handlers"
	"paypromise/internal/config"
	"paypromise/internal/middleware"
	"paypromise/internal/session"
)

type Deps struct {
	Ledger   h.CustomerLedger
	Sessions *session.Store
	Agent    h.Negotiator
	Payments h.PaymentLinker
	Notifier h.AlertNotifier
	Upgrader websocket.Upgrader
	Now      func() time.Time
}

func NewRouter(cfg *config.Config, d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Method(http.MethodGet, "/health", h.HandleHealth())

	r.Route("/customers", func(r chi.Router) {
		r.Method(http.MethodGet, "/", h.HandleListCustomers(d.Ledger))
		r.Method(http.MethodPost, "/", h.HandleCreateCustomer(d.Ledger))
		r.Method(http.MethodGet, "/{id}", h.HandleGetCustomer(d.Ledger))
		r.Method(http.MethodPost, "/{id}/promises", h.HandleRecordPromise(d.Ledger, d.Notifier))
		if d.Payments != nil {
			r.Method(http.MethodPost, "/{id}/payment-link", h.HandleCreatePaymentLink(d.Ledger, d.Payments))
		}
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Method(http.MethodPost, "/", h.HandleOpenSession(d.Ledger, d.Sessions))
		r.Method(http.MethodGet, "/{id}", h.HandleGetSession(d.Sessions))
		r.Method(http.MethodDelete, "/{id}", h.HandleCloseSession(d.Sessions))
		r.Method(http.MethodPost, "/{id}/messages", h.HandleSendMessage(d.Sessions, d.Agent))
		r.Method(http.MethodPost, "/{id}/audio", h.HandleSendAudio(d.Sessions, d.Agent))
		r.Method(http.MethodGet, "/{id}/ws", h.HandleChatStream(d.Sessions, d.Agent, d.Upgrader))
	})

	r.Method(http.MethodGet, "/prompts/{name}", h.HandleGetPromptByNameParam(d.Ledger, d.Now))

	return r
}
