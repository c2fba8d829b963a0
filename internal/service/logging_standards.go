package service

// Logging Standards for lzpending
//
// Standard field names and message patterns, so scans, watcher runs and
// HTTP requests log the same way.

// Standard Field Names
// Use these exact field names for consistency across all logging calls
const (
	// Core identifiers
	LogFieldOwner     = "owner"
	LogFieldSrcTxHash = "src_tx_hash"
	LogFieldSender32  = "sender32"
	LogFieldPayload   = "payload"
	LogFieldDstEid    = "dst_eid"
	LogFieldScanID    = "scan_id"

	// Service and operation fields
	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldTrigger   = "trigger" // "request", "watcher" or "cli"

	// Scan results
	LogFieldAvailable = "available"
	LogFieldListed    = "listed"
	LogFieldCount     = "count"
	LogFieldPruned    = "pruned"

	// Performance and metrics
	LogFieldDuration = "duration_ms"

	// Network and external services
	LogFieldURL        = "url"
	LogFieldEndpoint   = "endpoint"
	LogFieldStatusCode = "status_code"

	// Error and debugging
	LogFieldErrorCode = "error_code"
)

// Log Level Usage Guidelines
//
// DEBUG: per-message resolution, scan summaries, cache hits.
// INFO: startup/shutdown, watcher start/stop, configuration loaded.
// WARN: upstream unavailable (scan API or detail page), fallback used.
// ERROR: unexpected failures surfaced as HTTP 500, store failures.
// FATAL: configuration required for startup is missing.

// Standard Log Message Patterns
//
// Starting operations: "Starting [operation]"
// Completed operations: "Completed [operation]"
// Failed operations: "Failed to [operation]"
// Skipping operations: "Skipping [operation]: [reason]"
//
// Hex values (hashes, senders, payloads, owner) go through abbrev.HexFields
// before logging; payloads can be kilobytes long.
//
// logger.WithFields(logrus.Fields(abbrev.HexFields(map[string]interface{}{
//     LogFieldSrcTxHash: summary.SrcTxHash,
//     LogFieldPayload:   summary.Payload,
// }))).Debug("Pending message resolved")
