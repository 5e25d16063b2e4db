package session

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// SentinelOK is the fixed acknowledgement the backend returns for ingestion
// messages (profile, daily data) instead of a structured payload.
const SentinelOK = "ok"

type ReplyKind int

const (
	// KindAck is the bare sentinel acknowledgement.
	KindAck ReplyKind = iota
	// KindPayload carries extracted JSON in Reply.JSON.
	KindPayload
)

// Reply is the normalized interpretation of a raw backend reply: either an
// acknowledgement or a structured payload. Raw always preserves the original
// text.
type Reply struct {
	Kind ReplyKind
	Raw  string
	JSON string
}

// Decode unmarshals the extracted payload into v. Acks carry no payload.
func (r Reply) Decode(v any) error {
	if r.Kind != KindPayload {
		return fmt.Errorf("%w: reply is an acknowledgement, not a payload", ErrParse)
	}
	if err := json.Unmarshal([]byte(r.JSON), v); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

var fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// Interpret normalizes a raw reply. Tier one: the literal trimmed sentinel
// passes through as an ack. Tier two: replies mentioning tasks or
// notifications have their fenced code block extracted. Tier three: the
// first balanced {...} substring. Anything else is a parse failure.
func Interpret(raw string) (Reply, error) {
	if strings.TrimSpace(raw) == SentinelOK {
		return Reply{Kind: KindAck, Raw: raw}, nil
	}
	payload, err := ExtractJSON(raw)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Kind: KindPayload, Raw: raw, JSON: payload}, nil
}

// ExtractJSON recovers the JSON object embedded in a free-form reply. The
// backend is told to answer with bare JSON but tends to wrap it in markdown
// fences or prose; this is the tolerance layer for those replies.
func ExtractJSON(raw string) (string, error) {
	if strings.Contains(raw, "tasks") || strings.Contains(raw, "notifications") {
		if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
			inner := strings.TrimSpace(m[1])
			if inner != "" {
				return inner, nil
			}
		}
	}
	if obj, ok := firstBalancedObject(raw); ok {
		return obj, nil
	}
	return "", fmt.Errorf("%w: no JSON object found in reply", ErrParse)
}

// firstBalancedObject scans for the first '{' and returns the substring up
// to its matching close brace. Braces inside string literals are skipped.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
