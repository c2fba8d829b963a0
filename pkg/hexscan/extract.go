package hexscan

import (
	"regexp"

	"github.com/samber/lo"
)

// Sender32Length is the length of a 0x-prefixed 32-byte hex string.
const Sender32Length = 66

var hexTokenPattern = regexp.MustCompile(`0x[0-9a-fA-F]{64,}`)

// Candidates holds the values recovered from an unstructured document.
// An empty field means no candidate matched.
type Candidates struct {
	Sender32 string `json:"sender32,omitempty"`
	Payload  string `json:"payload,omitempty"`
}

// Tokens returns every 0x-prefixed hex run of at least 64 digits in text,
// deduplicated in first-seen order.
func Tokens(text string) []string {
	return lo.Uniq(hexTokenPattern.FindAllString(text, -1))
}

// Extract classifies the hex tokens found in text. The sender is the first
// token of exactly 32 bytes; the payload is the first longer token with an
// even length. The two predicates never match the same token.
func Extract(text string) Candidates {
	tokens := Tokens(text)

	var c Candidates
	if sender, ok := lo.Find(tokens, isSender32); ok {
		c.Sender32 = sender
	}
	if payload, ok := lo.Find(tokens, isPayload); ok {
		c.Payload = payload
	}
	return c
}

func isSender32(token string) bool {
	return len(token) == Sender32Length
}

func isPayload(token string) bool {
	return len(token) > Sender32Length && len(token)%2 == 0
}
