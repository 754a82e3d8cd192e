package ai

import "fmt"

// GenerateGreeting is the first assistant message of every session.
func GenerateGreeting(name string, balance string) string {
	return fmt.Sprintf("Hola %s, su saldo es $%s. ¿Cómo desea pagar?", name, balance)
}
