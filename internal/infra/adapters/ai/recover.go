package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"devotional-ai-service/internal/infra/metrics"
)

// Models asked for JSON still wrap it in prose, markdown fences, or
// single-quoted pseudo-JSON often enough that a single json.Unmarshal is
// not good enough. DecodeModelJSON runs an ordered list of total parsers,
// strictest first, until one yields something that unmarshals. New
// heuristics get appended to the list without touching callers.

type recoveryParser struct {
	name string
	fn   func(string) (string, bool)
}

var recoveryParsers = []recoveryParser{
	{"raw", parseRaw},
	{"fenced", parseFenced},
	{"embedded", parseEmbedded},
	{"relaxed", parseRelaxed},
}

// DecodeModelJSON unmarshals model output into v, applying progressively
// looser recovery. The error from the strict attempt is returned when
// every parser misses.
func DecodeModelJSON(raw string, v interface{}) error {
	var firstErr error
	for _, p := range recoveryParsers {
		candidate, ok := p.fn(raw)
		if !ok {
			metrics.IncRecovery(p.name, "miss")
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			metrics.IncRecovery(p.name, "miss")
			continue
		}
		metrics.IncRecovery(p.name, "hit")
		return nil
	}
	if firstErr == nil {
		firstErr = errors.New("no json payload found")
	}
	return firstErr
}

func parseRaw(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// parseFenced strips markdown code fences: ```json ... ``` or ``` ... ```.
func parseFenced(s string) (string, bool) {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	s = s[start+3:]
	if i := strings.IndexAny(s, "\n"); i >= 0 {
		// Drop the language tag line if there is one.
		if tag := strings.TrimSpace(s[:i]); tag == "json" || tag == "" {
			s = s[i+1:]
		}
	}
	end := strings.Index(s, "```")
	if end < 0 {
		return "", false
	}
	out := strings.TrimSpace(s[:end])
	return out, out != ""
}

var embeddedJSON = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// parseEmbedded pulls the outermost object or array out of surrounding prose.
func parseEmbedded(s string) (string, bool) {
	m := embeddedJSON.FindString(s)
	return m, m != ""
}

// parseRelaxed handles single-quoted pseudo-JSON and trailing commas.
// It is lossy on purpose and runs last.
func parseRelaxed(s string) (string, bool) {
	m := embeddedJSON.FindString(s)
	if m == "" {
		return "", false
	}
	m = strings.ReplaceAll(m, "'", `"`)
	m = trailingComma.ReplaceAllString(m, "$1")
	return m, true
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)
