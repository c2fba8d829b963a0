package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"lzpending/pkg/constants"
	"lzpending/pkg/layerzero"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// fieldPath addresses a value inside a RawMessage; each element is one
// level of object nesting.
type fieldPath []string

// Probe orders per logical field. The first path that yields a non-empty
// scalar wins.
var (
	statusPaths = []fieldPath{
		{"executorResult", "status"},
		{"executorStatus"},
	}
	txHashPaths = []fieldPath{
		{"srcTxHash"},
		{"txHash"},
		{"transaction", "hash"},
	}
	senderPaths = []fieldPath{
		{"sender32"},
		{"sender"},
		{"srcUaAddress"},
	}
	payloadPaths = []fieldPath{
		{"payload"},
		{"message"},
		{"messageData"},
	}
	dstEidPaths = []fieldPath{
		{"dstEid"},
		{"dstEndpointId"},
		{"dstChainId"},
		{"pathway", "dstEid"},
	}
)

// probedFields is what the normalizer could resolve from structured fields.
type probedFields struct {
	Status   string
	TxHash   string
	Sender32 string
	Payload  string
	DstEid   json.RawMessage
}

func probeMessage(raw layerzero.RawMessage) probedFields {
	status, _ := probe(raw, statusPaths)
	txHash, _ := probe(raw, txHashPaths)
	sender, _ := probe(raw, senderPaths)
	payload, _ := probe(raw, payloadPaths)
	dstEid, _ := firstScalarJSON(raw, dstEidPaths)

	return probedFields{
		Status:   strings.ToUpper(strings.TrimSpace(status)),
		TxHash:   strings.TrimSpace(txHash),
		Sender32: normalizeSender(sender),
		Payload:  strings.TrimSpace(payload),
		DstEid:   dstEid,
	}
}

// probe walks each path in order and returns the first non-empty scalar.
func probe(raw layerzero.RawMessage, paths []fieldPath) (string, bool) {
	for _, path := range paths {
		if v, ok := lookup(raw, path); ok {
			if s, ok := scalarString(v); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// firstScalarJSON is like the string lookup above but keeps the JSON type.
func firstScalarJSON(raw layerzero.RawMessage, paths []fieldPath) (json.RawMessage, bool) {
	for _, path := range paths {
		if v, ok := lookup(raw, path); ok {
			if r, ok := scalarJSON(v); ok {
				return r, true
			}
		}
	}
	return nil, false
}

func lookup(raw map[string]any, path fieldPath) (any, bool) {
	var current any = raw
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			// RawMessage nested values decode as plain maps, but tests and
			// callers may also build nested RawMessage values by hand.
			rm, isRaw := current.(layerzero.RawMessage)
			if !isRaw {
				return nil, false
			}
			obj = rm
		}
		current, ok = obj[key]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

// scalarJSON encodes a non-empty string or number scalar back to JSON.
func scalarJSON(v any) (json.RawMessage, bool) {
	s, ok := scalarString(v)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, false
	}
	if _, isString := v.(string); isString {
		b, err := json.Marshal(s)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return json.RawMessage(s), true
}

// normalizeSender left-pads 20-byte addresses to 32 bytes and lowercases hex
// identifiers. Anything that is not recognisable hex is passed through.
func normalizeSender(sender string) string {
	sender = strings.TrimSpace(sender)
	switch {
	case sender == "":
		return ""
	case len(sender) == constants.AddressHexLength && common.IsHexAddress(sender) && hasHexPrefix(sender):
		return common.BytesToHash(common.HexToAddress(sender).Bytes()).Hex()
	case len(sender) == constants.Bytes32HexLength && isHexBytes(sender):
		return strings.ToLower(sender)
	default:
		return sender
	}
}

func hasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHexBytes(s string) bool {
	_, err := hexutil.Decode(s)
	return err == nil
}
