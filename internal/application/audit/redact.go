package audit

import "strings"

// Redacted reemplaza cualquier valor sensible en los detalles persistidos.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"qrpayload":          {},
	"signature":          {},
	"authenticatordata":  {},
	"clientdata":         {},
	"biometricassertion": {},
	"authorization":      {},
	"pin":                {},
	"pincode":            {},
}

func isKeySeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ' '
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	k := strings.NewReplacer("_", "", "-", "").Replace(lower)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	// "pin" como palabra de la clave: pin_code, user-pin, new.pin.
	for _, tok := range strings.FieldsFunc(lower, isKeySeparator) {
		if tok == "pin" {
			return true
		}
	}
	return strings.Contains(k, "password") ||
		strings.Contains(k, "motdepasse") ||
		strings.Contains(k, "secret") ||
		strings.Contains(k, "token")
}

// Redact devuelve una copia profunda de m con los valores sensibles ocultos.
func Redact(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitive(k) {
			out[k] = Redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = redactValue(e)
		}
		return cp
	default:
		return v
	}
}
