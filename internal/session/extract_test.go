package session

import (
	"errors"
	"testing"
)

func TestInterpretSentinelPassthrough(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "bare", raw: "ok"},
		{name: "padded", raw: "  ok\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, err := Interpret(tc.raw)
			if err != nil {
				t.Fatalf("Interpret(%q) error: %v", tc.raw, err)
			}
			if reply.Kind != KindAck {
				t.Fatalf("Interpret(%q) kind=%v, want ack", tc.raw, reply.Kind)
			}
			if reply.Raw != tc.raw {
				t.Fatalf("Interpret(%q) raw=%q, want verbatim", tc.raw, reply.Raw)
			}
		})
	}
}

func TestExtractJSONFencedTasksRoundTrip(t *testing.T) {
	inner := `{"tasks":[{"title":"Walk","body":"Take a 20 minute walk","status":"pending"}]}`
	raw := "Here is your list:\n```json\n" + inner + "\n```\nEnjoy!"
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON error: %v", err)
	}
	if got != inner {
		t.Fatalf("ExtractJSON=%q, want inner block %q", got, inner)
	}
}

func TestExtractJSONFencedWithoutLanguageTag(t *testing.T) {
	inner := `{"notifications":[{"title":"Stretch","body":"Stand up","pushingTime":"14:00"}]}`
	raw := "```\n" + inner + "\n```"
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON error: %v", err)
	}
	if got != inner {
		t.Fatalf("ExtractJSON=%q, want %q", got, inner)
	}
}

func TestExtractJSONBraceFallback(t *testing.T) {
	raw := `Sure! {"welcome_message":"Good morning, Ada {..}"} hope that helps`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON error: %v", err)
	}
	want := `{"welcome_message":"Good morning, Ada {..}"}`
	if got != want {
		t.Fatalf("ExtractJSON=%q, want %q", got, want)
	}
}

func TestExtractJSONTasksReplyWithoutFenceFallsBack(t *testing.T) {
	inner := `{"tasks":[]}`
	got, err := ExtractJSON("your tasks: " + inner)
	if err != nil {
		t.Fatalf("ExtractJSON error: %v", err)
	}
	if got != inner {
		t.Fatalf("ExtractJSON=%q, want %q", got, inner)
	}
}

func TestExtractJSONNoObjectIsParseError(t *testing.T) {
	_, err := ExtractJSON("I could not generate anything today, sorry.")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("ExtractJSON err=%v, want ErrParse", err)
	}
}

func TestReplyDecode(t *testing.T) {
	reply := Reply{Kind: KindPayload, JSON: `{"welcome_message":"hello"}`}
	var payload struct {
		WelcomeMessage string `json:"welcome_message"`
	}
	if err := reply.Decode(&payload); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if payload.WelcomeMessage != "hello" {
		t.Fatalf("Decode welcome=%q, want hello", payload.WelcomeMessage)
	}

	bad := Reply{Kind: KindPayload, JSON: `{"welcome_message": }`}
	if err := bad.Decode(&payload); !errors.Is(err, ErrParse) {
		t.Fatalf("Decode of malformed JSON err=%v, want ErrParse", err)
	}

	ack := Reply{Kind: KindAck, Raw: "ok"}
	if err := ack.Decode(&payload); !errors.Is(err, ErrParse) {
		t.Fatalf("Decode of ack err=%v, want ErrParse", err)
	}
}
