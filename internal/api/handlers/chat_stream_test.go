package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"paypromise/internal/agent"
	"paypromise/internal/ledger"
	"paypromise/internal/session"
)

type echoNegotiator struct{}

func (echoNegotiator) HandleTurn(ctx context.Context, sess *session.Session, input string) (agent.Reply, error) {
	return agent.Reply{Text: "eco: " + input}, nil
}

func (echoNegotiator) HandleAudio(ctx context.Context, sess *session.Session, audio []byte, mimeType, audioID string) (agent.Reply, error) {
	return agent.Reply{Text: "audio", Transcript: string(audio)}, nil
}

func dialChatStream(t *testing.T) *websocket.Conn {
	t.Helper()
	sessions := session.NewStore()
	s := sessions.Open(ledger.Customer{ID: 1, Name: "Juan Perez", TotalDebt: decimal.NewFromInt(500)})

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/sessions/{id}/ws", HandleChatStream(sessions, echoNegotiator{}, websocket.Upgrader{}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + s.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var history map[string]any
	if err := conn.ReadJSON(&history); err != nil {
		t.Fatal(err)
	}
	return conn
}

func TestChatStreamAudioFrame(t *testing.T) {
	conn := dialChatStream(t)

	if err := conn.WriteJSON(StreamFrame{Type: "audio", Audio: []byte("voz"), AudioID: "a1"}); err != nil {
		t.Fatal(err)
	}
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame["type"] != "reply" || frame["transcript"] != "voz" {
		t.Errorf("reply frame = %v", frame)
	}
}

func TestChatStreamRejectsOversizedFrame(t *testing.T) {
	conn := dialChatStream(t)

	payload := `{"type":"text","text":"` + string(bytes.Repeat([]byte("a"), maxFrameBytes)) + `"}`
	// the server may hang up mid-write
	conn.WriteMessage(websocket.TextMessage, []byte(payload))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close after an oversized frame")
	}
}
