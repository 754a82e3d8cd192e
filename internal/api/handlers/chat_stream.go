package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"paypromise/internal/agent"
	"paypromise/internal/session"
)

// maxFrameBytes fits one base64 voice note of maxAudioBytes plus the JSON
// envelope.
const maxFrameBytes = maxAudioBytes*4/3 + 64<<10

// StreamFrame is sent by the client over the chat websocket. Audio is
// base64 in JSON.
type StreamFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Audio    []byte `json:"audio,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	AudioID  string `json:"audio_id,omitempty"`
}

type streamReply struct {
	Type string `json:"type"`
	agent.Reply
}

type streamHistory struct {
	Type     string            `json:"type"`
	Messages []session.Message `json:"messages"`
}

type streamError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// HandleChatStream runs a session over a websocket: one reply frame per
// client frame, in order.
func HandleChatStream(sessions *session.Store, n Negotiator, upgrader websocket.Upgrader) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, "failed to load session", err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			zap.L().Warn("failed to upgrade connection", zap.Error(err))
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxFrameBytes)

		log := zap.L().With(zap.String("session_id", s.ID), zap.Int64("customer_id", s.CustomerID))
		log.Info("chat stream opened")

		if err := conn.WriteJSON(streamHistory{Type: "history", Messages: s.Messages()}); err != nil {
			log.Warn("failed to send history", zap.Error(err))
			return
		}

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn("error reading message", zap.Error(err))
				}
				break
			}
			if messageType != websocket.TextMessage {
				continue
			}

			var frame StreamFrame
			if err := json.Unmarshal(message, &frame); err != nil {
				conn.WriteJSON(streamError{Type: "error", Error: "invalid frame"})
				continue
			}

			var reply agent.Reply
			switch frame.Type {
			case "text":
				reply, err = n.HandleTurn(r.Context(), s, frame.Text)
			case "audio":
				mimeType := frame.MimeType
				if mimeType == "" {
					mimeType = "audio/ogg"
				}
				reply, err = n.HandleAudio(r.Context(), s, frame.Audio, mimeType, frame.AudioID)
			case "close":
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				log.Info("chat stream closed by client")
				return
			default:
				conn.WriteJSON(streamError{Type: "error", Error: "unknown frame type " + frame.Type})
				continue
			}

			if err != nil {
				log.Warn("turn failed", zap.Error(err))
				if werr := conn.WriteJSON(streamError{Type: "error", Error: err.Error()}); werr != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(streamReply{Type: "reply", Reply: reply}); err != nil {
				log.Warn("failed to send reply", zap.Error(err))
				return
			}
		}
	})
}
