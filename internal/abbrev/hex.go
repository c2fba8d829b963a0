package abbrev

import (
	"fmt"
	"strings"

	"lzpending/internal/constants"
)

// Hex shortens a 0x-prefixed hex string for log output, keeping the first and
// last few digits. Example: "0x1234567890abcdef...99" -> "0x123456…ef99 (130 chars)".
// Short or non-hex values are returned unchanged.
func Hex(s string) string {
	return hexKeep(s, constants.DefaultHexMaskKeep)
}

func hexKeep(s string, keep int) string {
	if !strings.HasPrefix(s, "0x") {
		return s
	}
	digits := s[2:]
	if len(digits) <= 2*keep+4 {
		return s
	}
	return fmt.Sprintf("0x%s…%s (%d chars)", digits[:keep], digits[len(digits)-keep:], len(s))
}

// HexFields shortens the hex-valued entries of a log field map. Keys that
// commonly carry long hex (hashes, payloads, senders) are abbreviated; other
// values pass through.
func HexFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch k {
		case "payload", "sender32", "tx_hash", "src_tx_hash", "owner":
			if s, ok := v.(string); ok {
				out[k] = Hex(s)
				continue
			}
		}
		out[k] = v
	}
	return out
}
