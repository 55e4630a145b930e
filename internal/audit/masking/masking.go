package masking

import "strings"

const maskToken = "****"

var piiKeys = map[string]func(string) string{
	"email":   MaskEmail,
	"phone":   MaskPhone,
	"address": func(string) string { return maskToken },
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return maskToken
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskPhone keeps the last two digits.
func MaskPhone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 2 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-2:]
}

// MaskPII returns a copy of the input with contact fields masked, recursing into nested maps.
func MaskPII(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[trimmedKey] = maskValue(trimmedKey, value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case string:
		if mask, ok := piiKeys[strings.ToLower(key)]; ok {
			return mask(cast)
		}
		return cast
	case *string:
		if cast == nil {
			return nil
		}
		return maskValue(key, *cast)
	case map[string]any:
		return MaskPII(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(key, item))
		}
		return out
	default:
		return value
	}
}
