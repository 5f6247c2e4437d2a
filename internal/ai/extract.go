package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/yildizm/go-promptfmt"
)

// extractPayload is the wire shape models are asked to produce. Field
// aliases tolerate the drift observed across models: explanation for
// root_cause, solution for suggestions, strings where objects belong.
type extractPayload struct {
	RootCause   string          `json:"root_cause"`
	Explanation string          `json:"explanation"`
	Impact      string          `json:"impact"`
	Confidence  float64         `json:"confidence"`
	Suggestions flexSuggestions `json:"suggestions"`
	Solution    flexSuggestions `json:"solution"`
}

// flexSuggestions accepts a list of suggestion objects, a list of plain
// strings, or a single string. Unrecognized shapes decode to empty rather
// than failing the surrounding parse.
type flexSuggestions []Suggestion

func (f *flexSuggestions) UnmarshalJSON(data []byte) error {
	var objs []Suggestion
	if err := json.Unmarshal(data, &objs); err == nil {
		*f = objs
		return nil
	}
	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		out := make([]Suggestion, 0, len(strs))
		for _, s := range strs {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, Suggestion{Description: s})
			}
		}
		*f = out
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one = strings.TrimSpace(one); one != "" {
			*f = []Suggestion{{Description: one}}
		}
		return nil
	}
	*f = nil
	return nil
}

func (p *extractPayload) toResult() *AnalysisResult {
	root := p.RootCause
	if root == "" {
		root = p.Explanation
	}
	suggestions := append([]Suggestion{}, p.Suggestions...)
	suggestions = append(suggestions, p.Solution...)
	return &AnalysisResult{
		RootCause:   root,
		Impact:      p.Impact,
		Suggestions: suggestions,
		Confidence:  p.Confidence,
		Origin:      OriginFresh,
	}
}

// Extract recovers a structured AnalysisResult from free-form generated
// text. It never fails: when every parse attempt is exhausted it returns a
// degraded result holding the raw text verbatim with zero confidence, so
// a sloppy model response can never abort a task.
func Extract(raw string) *AnalysisResult {
	payload := stripFence(raw)

	// First chance: the response may already be clean JSON.
	var p extractPayload
	if res := promptfmt.NewResponse(payload).TryParseJSON(&p); res.Success {
		return p.toResult()
	}

	span, ok := jsonSpan(payload)
	if ok {
		if r, ok := tryParse(span); ok {
			return r
		}
		// Textual repairs, applied cumulatively with a parse retry after
		// each pass.
		repaired := span
		for _, repair := range []func(string) string{
			removeTrailingCommas,
			normalizeSingleQuotes,
			escapeControlChars,
		} {
			repaired = repair(repaired)
			if r, ok := tryParse(repaired); ok {
				return r
			}
		}
	}

	return &AnalysisResult{
		RootCause:   strings.TrimSpace(raw),
		Suggestions: []Suggestion{{Description: strings.TrimSpace(raw)}},
		Confidence:  0,
		Origin:      OriginFresh,
	}
}

func tryParse(span string) (*AnalysisResult, bool) {
	var p extractPayload
	if err := json.Unmarshal([]byte(span), &p); err != nil {
		return nil, false
	}
	return p.toResult(), true
}

// stripFence returns the interior of the first fenced block when one
// wraps the payload, otherwise the trimmed input.
func stripFence(text string) string {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(text, marker)
		if start < 0 {
			continue
		}
		inner := text[start+len(marker):]
		if end := strings.Index(inner, "```"); end >= 0 {
			return strings.TrimSpace(inner[:end])
		}
	}
	return strings.TrimSpace(text)
}

// jsonSpan locates the first '{' and its balanced closing '}', counting
// depth while ignoring braces inside quoted strings.
func jsonSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// removeTrailingCommas drops commas that directly precede a closing brace
// or bracket, outside quoted strings.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
			b.WriteByte(c)
		case '"':
			inString = !inString
			b.WriteByte(c)
		case ',':
			if !inString {
				j := i + 1
				for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
					j++
				}
				if j < len(s) && (s[j] == '}' || s[j] == ']') {
					continue
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	singleQuotedKey   = regexp.MustCompile(`'([^'\\]*)'(\s*:)`)
	singleQuotedValue = regexp.MustCompile(`(:\s*)'([^'\\]*)'`)
)

// normalizeSingleQuotes rewrites single-quoted keys and values to double
// quotes where the rewrite is unambiguous, i.e. the quoted run contains
// neither quotes nor escapes.
func normalizeSingleQuotes(s string) string {
	s = singleQuotedKey.ReplaceAllString(s, `"$1"$2`)
	return singleQuotedValue.ReplaceAllString(s, `$1"$2"`)
}

// escapeControlChars escapes raw control characters that appear inside
// quoted strings, which strict JSON rejects.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case inString && c == '\n':
			b.WriteString(`\n`)
		case inString && c == '\r':
			b.WriteString(`\r`)
		case inString && c == '\t':
			b.WriteString(`\t`)
		case inString && c < 0x20:
			// Drop other control characters outright.
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
