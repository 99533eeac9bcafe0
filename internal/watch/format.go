package watch

import (
	"fmt"
	"strings"
)

// Placeholder is rendered for absent or non-numeric values.
const Placeholder = "--"

// Flatten reduces a nested JSON object to a single-level key space.
// Nested leaves are keyed by their basename; when a top-level key
// collides with a nested leaf of the same name, the top-level value
// wins. Arrays count as leaves.
func Flatten(obj map[string]any) map[string]any {
	flat := make(map[string]any)

	collectLeaves(obj, flat)

	// Top-level leaves override anything a nested object contributed
	// under the same name.
	for key, value := range obj {
		if _, nested := value.(map[string]any); !nested {
			flat[key] = value
		}
	}

	return flat
}

func collectLeaves(obj map[string]any, flat map[string]any) {
	for key, value := range obj {
		if nested, ok := value.(map[string]any); ok {
			collectLeaves(nested, flat)
		} else {
			flat[key] = value
		}
	}
}

// FormatValue renders a value for display: billions, millions and
// thousands are abbreviated to one decimal, fractions between 0 and
// 1 get two decimals, other numbers get thousand separators, and
// anything non-numeric becomes the placeholder dash.
func FormatValue(value any) string {
	number, ok := toFloat(value)
	if !ok {
		if s, isString := value.(string); isString && s != "" {
			return s
		}

		return Placeholder
	}

	switch {
	case number >= 1e9:
		return fmt.Sprintf("%.1fB", number/1e9)
	case number >= 1e6:
		return fmt.Sprintf("%.1fM", number/1e6)
	case number >= 1e3:
		return fmt.Sprintf("%.1fK", number/1e3)
	case number > 0 && number < 1:
		return fmt.Sprintf("%.2f", number)
	default:
		return groupThousands(number)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// groupThousands renders a number with comma separators, keeping up
// to two decimals only when the value is not integral.
func groupThousands(number float64) string {
	s := fmt.Sprintf("%.2f", number)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	integer := s
	fraction := ""

	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		integer, fraction = s[:idx], s[idx:]
	}

	var b strings.Builder

	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(digit)
	}

	out := b.String() + fraction
	if negative {
		out = "-" + out
	}

	return out
}
