package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields is the flattened webhook payload: every value a gateway sent,
// keyed by field name, regardless of whether the body was JSON or
// form-encoded.
type Fields map[string]string

func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// ParseAmountCents converts a gateway decimal amount string such as "25.50"
// into integer cents. Integer arithmetic avoids the float rounding problems
// that matter in money handling. At most two fraction digits are accepted.
func ParseAmountCents(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(raw, "-") {
		return 0, fmt.Errorf("amount %q is negative", raw)
	}

	wholePart := raw
	fracPart := ""
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		wholePart = raw[:idx]
		fracPart = raw[idx+1:]
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has more than two fraction digits", raw)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", raw)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", raw)
	}

	return whole*100 + frac, nil
}

// FormatAmount renders cents back into the canonical "12.34" form used when
// recomputing gateway digests and in replay keys.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
