package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseMethod records which strategy produced a ParsedVerdict.
type ParseMethod string

const (
	MethodStructured ParseMethod = "structured"
	MethodHeuristic  ParseMethod = "heuristic"
	MethodFallback   ParseMethod = "fallback"
)

const (
	// UnparsedRationale is reported when nothing usable came back from the model.
	UnparsedRationale = "Unable to parse analysis"
	// MissingRationale replaces an empty reason in an otherwise valid reply.
	MissingRationale = "No reason provided by the model"

	heuristicRationaleWidth = 500
)

// ParsedVerdict is the structured reading of one model reply.
type ParsedVerdict struct {
	Verdict   Verdict     `json:"verdict"`
	Score     int         `json:"credibility_score"`
	Rationale string      `json:"reason"`
	Method    ParseMethod `json:"-"`
}

// Unparsed is the verdict recorded when a reply carries no usable signal.
func Unparsed() ParsedVerdict {
	return ParsedVerdict{Verdict: VerdictUncertain, Score: DefaultScore, Rationale: UnparsedRationale, Method: MethodFallback}
}

// ParseResponse reads a raw model reply. It never fails: a strict JSON read is
// tried first, then a keyword heuristic, then the Unparsed fallback.
func ParseResponse(raw string) ParsedVerdict {
	cleaned := cleanJSON([]byte(raw))
	if pv, ok := parseStructured(cleaned); ok {
		return pv
	}
	if pv, ok := parseHeuristic(string(cleaned)); ok {
		return pv
	}
	return Unparsed()
}

// cleanJSON strips surrounding whitespace and a markdown code fence.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if bytes.HasPrefix(s, []byte("```")) {
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = bytes.TrimLeft(s, "`")
		}
		s = bytes.TrimSpace(s)
		s = bytes.TrimSuffix(s, []byte("```"))
		s = bytes.TrimSpace(s)
	}
	return s
}

func parseStructured(data []byte) (ParsedVerdict, bool) {
	for i, c := range data {
		if c != '{' {
			continue
		}
		obj := balancedObject(data[i:])
		if obj == nil {
			continue
		}
		if fields, ok := decodeObject(obj); ok {
			return fromFields(fields), true
		}
	}
	return ParsedVerdict{}, false
}

// balancedObject returns the complete {...} at the head of data, honoring JSON
// string quoting, or nil when the braces never close.
func balancedObject(data []byte) []byte {
	depth := 0
	inString := false
	escaped := false
	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}

func decodeObject(obj []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(strings.TrimSpace(k))] = v
	}
	_, hasVerdict := fields["verdict"]
	_, hasScore := fields["credibility_score"]
	_, hasReason := fields["reason"]
	if !hasVerdict && !hasScore && !hasReason {
		return nil, false
	}
	return fields, true
}

func fromFields(fields map[string]any) ParsedVerdict {
	pv := ParsedVerdict{Verdict: VerdictUncertain, Score: DefaultScore, Method: MethodStructured}
	if s, ok := fields["verdict"].(string); ok {
		pv.Verdict = NormalizeVerdict(s)
	}
	if n, ok := scoreValue(fields["credibility_score"]); ok {
		pv.Score = n
	}
	reason, _ := fields["reason"].(string)
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = MissingRationale
	}
	pv.Rationale = reason
	return pv
}

// scoreValue converts a decoded JSON value to a clamped integer score.
func scoreValue(v any) (int, bool) {
	var raw string
	switch t := v.(type) {
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.TrimSpace(t)
		raw = strings.TrimSuffix(raw, "%")
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "/100"))
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	// out-of-range numbers come back as ±Inf and clamp like any other
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	f = math.Max(MinScore, math.Min(MaxScore, math.Round(f)))
	return int(f), true
}

var (
	labeledVerdictRe = regexp.MustCompile(`(?i)verdict\W{0,4}(fake|real|uncertain)\b`)
	bareVerdictRe    = regexp.MustCompile(`(?i)\b(fake|real|uncertain)\b`)
	labeledScoreRe   = regexp.MustCompile(`(?i)(?:credibility[ _]?)?score\W{0,4}(-?\d{1,3}(?:\.\d+)?)`)
	outOfHundredRe   = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?)\s*/\s*100\b`)
	reasonRe         = regexp.MustCompile(`(?i)reason(?:ing)?\W{0,4}([^"\n]+)`)
)

// parseHeuristic recovers a verdict from free text. It needs at least a
// verdict keyword or a score to claim a result.
func parseHeuristic(text string) (ParsedVerdict, bool) {
	pv := ParsedVerdict{Verdict: VerdictUncertain, Score: DefaultScore, Method: MethodHeuristic}
	found := false

	if m := labeledVerdictRe.FindStringSubmatch(text); m != nil {
		pv.Verdict = NormalizeVerdict(m[1])
		found = true
	} else if v, ok := singleVerdictWord(text); ok {
		pv.Verdict = v
		found = true
	}

	for _, re := range []*regexp.Regexp{labeledScoreRe, outOfHundredRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, ok := scoreValue(m[1]); ok {
				pv.Score = n
				found = true
				break
			}
		}
	}
	if !found {
		return ParsedVerdict{}, false
	}

	if m := reasonRe.FindStringSubmatch(text); m != nil {
		pv.Rationale = strings.Trim(strings.TrimSpace(m[1]), `",}`)
	}
	if pv.Rationale == "" {
		pv.Rationale = Excerpt(strings.TrimSpace(text), heuristicRationaleWidth)
	}
	return pv, true
}

// singleVerdictWord returns the verdict only when the text names exactly one.
func singleVerdictWord(text string) (Verdict, bool) {
	var got Verdict
	for _, m := range bareVerdictRe.FindAllString(text, -1) {
		v := NormalizeVerdict(m)
		if got != "" && got != v {
			return "", false
		}
		got = v
	}
	return got, got != ""
}
