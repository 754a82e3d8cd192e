package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "key-123" {
			t.Errorf("xi-api-key = %q", got)
		}
		var body ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "Registro exitoso" {
			t.Errorf("text = %q", body.Text)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-mp3-bytes"))
	}))
	defer srv.Close()

	e := NewElevenLabs("key-123", "voice-1")
	e.baseURL = srv.URL

	audio, err := e.Synthesize(context.Background(), "Registro exitoso")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(audio) != "ID3-mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
}

func TestSynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota_exceeded"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewElevenLabs("bad", "voice-1")
	e.baseURL = srv.URL

	if _, err := e.Synthesize(context.Background(), "hola"); err == nil {
		t.Error("expected error on non-200 response")
	}
}
