package pm

import "fmt"

// Flatten turns "a value or a list of values" inputs into one flat argument
// list, in order. A nil or empty-string top-level value contributes nothing,
// a scalar contributes itself, and lists are flattened at every depth.
func Flatten(vals ...any) []string {
	out := []string{}
	for _, v := range vals {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out = appendFlat(out, v)
	}
	return out
}

func appendFlat(out []string, v any) []string {
	switch x := v.(type) {
	case nil:
		return out
	case string:
		return append(out, x)
	case []string:
		return append(out, x...)
	case [][]string:
		for _, inner := range x {
			out = append(out, inner...)
		}
		return out
	case []any:
		for _, inner := range x {
			out = appendFlat(out, inner)
		}
		return out
	case fmt.Stringer:
		return append(out, x.String())
	default:
		return append(out, fmt.Sprint(x))
	}
}
