package models

import (
	"encoding/json"
	"strings"
)

// ExecutorStatusWaiting is the executor status of a message that has been
// verified on the destination but not yet executed.
const ExecutorStatusWaiting = "WAITING"

// PendingMessageSummary is a message awaiting execution, normalized from
// whatever shape the scan API returned. DstEid keeps the upstream JSON type.
type PendingMessageSummary struct {
	SrcTxHash     string          `json:"srcTxHash"`
	DstEid        json.RawMessage `json:"dstEid,omitempty"`
	Sender32      string          `json:"sender32,omitempty"`
	Payload       string          `json:"payload,omitempty"`
	StatusSummary string          `json:"statusSummary"`
	LzTxPage      string          `json:"lzTxPage"`
}

// DstEidText is the destination endpoint id as plain text, with the quotes
// of a string id removed.
func (m PendingMessageSummary) DstEidText() string {
	if len(m.DstEid) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.DstEid, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(m.DstEid))
}

// PendingResponse is the body of a successful /pending response.
type PendingResponse struct {
	OK      bool                    `json:"ok"`
	Owner   string                  `json:"owner"`
	Count   int                     `json:"count"`
	Results []PendingMessageSummary `json:"results"`
}

// ErrorResponse is the body of a failed response.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
