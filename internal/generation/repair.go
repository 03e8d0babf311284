package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// repairFunc is one pure text transformation in the repair pipeline.
type repairFunc struct {
	name  string
	apply func(string) string
}

// repairPipeline is applied in order to model output that failed to parse.
// Each step is a standalone text transformation so it can be tested without
// the surrounding parse logic.
var repairPipeline = []repairFunc{
	{"strip_code_fences", stripCodeFences},
	{"normalize_smart_quotes", normalizeSmartQuotes},
	{"strip_bom", stripBOM},
	{"escape_newlines_in_strings", escapeNewlinesInStrings},
}

// RepairJSON returns raw unchanged when it already parses, otherwise runs
// the repair pipeline and verifies brace/bracket balance before handing the
// result back for a re-parse attempt.
func RepairJSON(raw string) (string, error) {
	if json.Valid([]byte(raw)) {
		return raw, nil
	}

	repaired := raw
	for _, step := range repairPipeline {
		repaired = step.apply(repaired)
	}

	if err := checkBalanced(repaired); err != nil {
		return "", fmt.Errorf("repair failed: %w", err)
	}
	return repaired, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		// Drop the language tag line ("json", "JSON", ...).
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"‘", "'", // left single
	"’", "'", // right single
)

func normalizeSmartQuotes(s string) string {
	return smartQuoteReplacer.Replace(s)
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// escapeNewlinesInStrings escapes raw control characters that occur inside
// quoted string values. Characters outside string scope are left alone, so
// formatting whitespace between tokens is never altered.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case inString && r == '\n':
			b.WriteString(`\n`)
		case inString && r == '\r':
			b.WriteString(`\r`)
		case inString && r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// checkBalanced verifies brace and bracket balance, skipping over string
// contents.
func checkBalanced(s string) error {
	var stack []rune
	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
			// string contents don't affect balance
		case r == '{' || r == '[':
			stack = append(stack, r)
		case r == '}' || r == ']':
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced %q", r)
			}
			open := stack[len(stack)-1]
			if (r == '}' && open != '{') || (r == ']' && open != '[') {
				return fmt.Errorf("mismatched %q", r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString {
		return fmt.Errorf("unterminated string")
	}
	if len(stack) != 0 {
		return fmt.Errorf("%d unclosed braces/brackets", len(stack))
	}
	return nil
}
