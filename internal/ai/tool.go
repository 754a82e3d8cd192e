package ai

// The function the model calls once it has both an amount and a date.
const (
	PromiseToolName        = "registrar_promesa"
	PromiseToolDescription = "Registra el monto y la fecha del compromiso de pago en el sistema"

	ArgAmount = "monto"
	ArgDate   = "fecha"
)
