package ai

import "fmt"

// GenerateAdvicePrompt asks for a short piece of advice after a promise has
// been recorded. The negotiation rules travel with it because the call is
// stateless.
func GenerateAdvicePrompt(systemPrompt string, date string, amount string) string {
	prompt := `%s

El cliente agendó para el %s un monto de %s. Según tus reglas de negociación, genera un consejo breve sobre su riesgo.`

	return fmt.Sprintf(prompt, systemPrompt, date, amount)
}

// GenerateTranscriptionPrompt accompanies a voice note sent to the model.
func GenerateTranscriptionPrompt(today string) string {
	return fmt.Sprintf("Transcribe y analiza en pocas palabras el tono. Hoy es %s:", today)
}
