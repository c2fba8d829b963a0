package models

import "time"

// Sighting records when the watcher first and last observed a pending message.
type Sighting struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	SrcTxHash  string    `json:"srcTxHash"`
	DstEid     string    `json:"dstEid,omitempty"`
	Status     string    `json:"status"`
	LzTxPage   string    `json:"lzTxPage"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	LastScanID string    `json:"lastScanId"`
	SeenCount  int       `json:"seenCount"`
}

// SightingsResponse is the body of a /pending/seen listing.
type SightingsResponse struct {
	OK      bool       `json:"ok"`
	Owner   string     `json:"owner"`
	Count   int        `json:"count"`
	Results []Sighting `json:"results"`
}

// SightingResponse is the body of a single-sighting lookup.
type SightingResponse struct {
	OK       bool     `json:"ok"`
	Sighting Sighting `json:"sighting"`
}
