package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"paypromise/internal/agent"
	"paypromise/internal/session"
)

// maxAudioBytes caps uploaded voice notes.
const maxAudioBytes = 10 << 20

type Negotiator interface {
	HandleTurn(ctx context.Context, sess *session.Session, input string) (agent.Reply, error)
	HandleAudio(ctx context.Context, sess *session.Session, audio []byte, mimeType, audioID string) (agent.Reply, error)
}

type OpenSessionRequest struct {
	CustomerID int64 `json:"customer_id"`
}

type SessionResponse struct {
	ID         string            `json:"id"`
	CustomerID int64             `json:"customer_id"`
	Customer   string            `json:"customer"`
	StartedAt  time.Time         `json:"started_at"`
	Messages   []session.Message `json:"messages"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

func sessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Customer:   s.CustomerName,
		StartedAt:  s.StartedAt,
		Messages:   s.Messages(),
	}
}

func HandleOpenSession(l CustomerLedger, sessions *session.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		if err := decode(r, &req); err != nil {
			writeError(w, "invalid request body", err)
			return
		}

		c, err := l.Get(r.Context(), req.CustomerID)
		if err != nil {
			writeError(w, "failed to load customer", err)
			return
		}

		writeJSON(w, http.StatusCreated, sessionResponse(sessions.Open(c)))
	})
}

func HandleGetSession(sessions *session.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "failed to load session", err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(s))
	})
}

func HandleCloseSession(sessions *session.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Close(chi.URLParam(r, "id")); err != nil {
			writeError(w, "failed to close session", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func HandleSendMessage(sessions *session.Store, n Negotiator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "failed to load session", err)
			return
		}

		var req MessageRequest
		if err := decode(r, &req); err != nil {
			writeError(w, "invalid request body", err)
			return
		}

		reply, err := n.HandleTurn(r.Context(), s, req.Text)
		if err != nil {
			writeError(w, "failed to handle message", err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	})
}

// HandleSendAudio takes the raw voice note as the request body. X-Audio-Id
// identifies the note so client retries are not processed twice.
func HandleSendAudio(sessions *session.Store, n Negotiator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "failed to load session", err)
			return
		}

		audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
		if err != nil {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "failed to read audio", err)
			return
		}

		mimeType := r.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "audio/ogg"
		}

		reply, err := n.HandleAudio(r.Context(), s, audio, mimeType, r.Header.Get("X-Audio-Id"))
		if err != nil {
			writeError(w, "failed to handle audio", err)
			return
		}
		writeJSON(w, http.StatusOK, reply)
	})
}
