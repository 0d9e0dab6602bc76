// Package query implements the trait query engine: the ${...} macro
// preprocessor, the equation compiler that resolves trait names against a
// frozen layout, the aggregation-mode resolver, and the façade composing the
// three into a single collection-to-value function.
package query

import (
	"context"

	"github.com/vk/evosimgo/internal/ctxlog"
)

// Evaluator is the narrow callback into the embedded script engine. The
// preprocessor hands it the interior of each ${...} span and splices the
// textual result back in.
type Evaluator interface {
	Execute(ctx context.Context, src string) (string, error)
}

// Preprocess scans text left to right exactly once. "$$" collapses to a
// literal "$" which is not reinterpreted. "${" opens a span closed by its
// balance-matched "}"; the interior is evaluated and the textual result
// spliced in place of the whole span, with scanning resuming immediately
// after the spliced text so substitutions are never re-expanded. An unmatched
// "${" is not an error: the string is returned with everything from that tag
// onward left verbatim.
func Preprocess(ctx context.Context, text string, eval Evaluator) string {
	out := text
	for i := 0; i < len(out); i++ {
		if out[i] != '$' {
			continue
		}
		if i+1 >= len(out) {
			break
		}
		if out[i+1] == '$' {
			// Drop one '$'; the loop increment steps over the survivor.
			out = out[:i] + out[i+1:]
			continue
		}
		if out[i+1] != '{' {
			continue
		}
		end := matchBrace(out, i+1)
		if end < 0 {
			return out
		}
		if eval == nil {
			// No engine attached; leave the span verbatim.
			continue
		}
		result, err := eval.Execute(ctx, out[i+2:end])
		if err != nil {
			ctxlog.FromContext(ctx).Error("macro expansion failed",
				"span", out[i+2:end], "err", err)
			result = ""
		}
		out = out[:i] + result + out[end+1:]
		i += len(result) - 1
	}
	return out
}

// matchBrace returns the index of the '}' balancing the '{' at open, or -1
// when the braces never balance. Nested braces inside the span are respected.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
