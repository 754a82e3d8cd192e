package agent

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"paypromise/internal/ai"
)

// parsePromiseArgs reads monto and fecha from a tool call. monto may be a
// number or a numeric string; fecha is kept verbatim.
func parsePromiseArgs(args map[string]any) (decimal.Decimal, string, error) {
	var amount decimal.Decimal
	switch v := args[ai.ArgAmount].(type) {
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "$"))
		d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return decimal.Decimal{}, "", fmt.Errorf("%w: monto %q", ErrBadToolCall, v)
		}
		amount = d
	default:
		return decimal.Decimal{}, "", fmt.Errorf("%w: monto missing", ErrBadToolCall)
	}

	date, ok := args[ai.ArgDate].(string)
	if !ok || strings.TrimSpace(date) == "" {
		return decimal.Decimal{}, "", fmt.Errorf("%w: fecha missing", ErrBadToolCall)
	}

	return amount, date, nil
}
