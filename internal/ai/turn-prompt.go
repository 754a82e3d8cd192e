package ai

import (
	"fmt"
	"strings"
)

// HistoryLine is one message of the conversation as shown to the model.
type HistoryLine struct {
	Role    string
	Content string
}

func GenerateTurnPrompt(
	systemPrompt string,
	name string,
	balance string,
	history []HistoryLine,
) (string, error) {
	if name == "" {
		return "", fmt.Errorf("customer name is required")
	}

	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Role, h.Content))
	}

	prompt := `%s
CLIENTE: %s
SALDO: %s
HISTORIAL:
%s`

	return fmt.Sprintf(prompt, systemPrompt, name, balance, strings.Join(lines, "\n")), nil
}
