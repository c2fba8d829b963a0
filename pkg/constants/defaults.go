package constants

// Default values used by client packages
const (
	DefaultHTTPTimeoutSec = 15
	DefaultUserAgent      = "lzpending/dev"
)

// Scan API defaults
const (
	DefaultScanAPIBaseURL    = "https://scan.layerzero-api.com/v1"
	DefaultScanTxPageBaseURL = "https://layerzeroscan.com/tx"
	MessagesFirstPage        = 1
	MessagesPageLimit        = 50
)

// Hex encoding lengths, including the 0x prefix
const (
	AddressHexLength = 42
	Bytes32HexLength = 66
)
