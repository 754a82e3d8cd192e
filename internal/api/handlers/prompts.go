package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"paypromise/internal/ai"
)

type PromptResponse struct {
	SystemPrompt string `json:"system_prompt"`
	Prompt       string `json:"prompt,omitempty"`
}

// HandleGetPromptByNameParam renders a prompt for inspection. greeting and
// turn need ?customer_id=.
func HandleGetPromptByNameParam(l CustomerLedger, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		systemPrompt := ai.GetSystemPrompt(now())

		if name == "system" {
			writeJSON(w, http.StatusOK, PromptResponse{SystemPrompt: systemPrompt})
			return
		}
		if name != "greeting" && name != "turn" {
			writeErrorResponse(w, http.StatusNotFound, "unknown prompt "+name, nil)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "customer_id is required", err)
			return
		}
		c, err := l.Get(r.Context(), id)
		if err != nil {
			writeError(w, "failed to load customer", err)
			return
		}
		balance := c.Outstanding().String()

		switch name {
		case "greeting":
			writeJSON(w, http.StatusOK, PromptResponse{
				SystemPrompt: systemPrompt,
				Prompt:       ai.GenerateGreeting(c.Name, balance),
			})
		case "turn":
			prompt, err := ai.GenerateTurnPrompt(systemPrompt, c.Name, balance, []ai.HistoryLine{
				{Role: "assistant", Content: ai.GenerateGreeting(c.Name, balance)},
			})
			if err != nil {
				writeError(w, "failed to render prompt", err)
				return
			}
			writeJSON(w, http.StatusOK, PromptResponse{SystemPrompt: systemPrompt, Prompt: prompt})
		}
	})
}

func HandleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
