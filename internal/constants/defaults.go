package constants

// Default server configuration values
const (
	DefaultServerPort            = 8787
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 30
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1

	// Headroom kept between the request scan deadline and WriteTimeout so
	// the error body still reaches the client.
	ScanWriteMarginMillis = 2000
)

// Default watcher and storage values
const (
	DefaultWatcherIntervalSec    = 60
	DefaultWatcherRetentionDays  = 7
	DefaultPruneIntervalMinutes  = 60
	DefaultScanTimeoutSec        = 60
	DefaultDatabasePath          = "lzpending.db"
	DefaultDatabaseRetryAttempts = 3
)

// Default cache values
const (
	DefaultCacheTTLMinutes = 30
	DefaultCacheShards     = 64
)

// Default tracing values
const (
	DefaultTracingServiceName = "lzpending"
	DefaultTracingSampleRate  = 0.1
	DefaultOTLPEndpoint       = "localhost:4318"
)

// Privacy settings
const (
	DefaultHexMaskKeep = 6
)
