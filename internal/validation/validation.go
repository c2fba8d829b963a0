package validation

import (
	"path/filepath"
	"strings"

	"lzpending/internal/errors"
	"lzpending/pkg/constants"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizeOwner trims and lowercases an owner identifier, the form the scan
// API expects in its address query parameter. Any non-empty value is
// accepted: LayerZero owners are not always 20-byte EVM addresses.
func NormalizeOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", errors.NewValidationError("owner", owner, "cannot be empty")
	}
	return strings.ToLower(owner), nil
}

// IsEVMAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsEVMAddress(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) && common.IsHexAddress(s)
}

// ValidateTxHash checks that hash is a 0x-prefixed 32-byte hex string.
func ValidateTxHash(hash string) error {
	if len(hash) != constants.Bytes32HexLength {
		return errors.NewValidationError("txHash", hash, "must be 32 bytes of hex")
	}
	if _, err := hexutil.Decode(hash); err != nil {
		return errors.NewValidationError("txHash", hash, err.Error())
	}
	return nil
}

// ValidateFilePath rejects empty paths and paths that climb out of their
// directory.
func ValidateFilePath(path string) error {
	if path == "" || path[0] == '\x00' {
		return errors.NewValidationError("path", path, "cannot be empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return errors.NewValidationError("path", path, "contains directory traversal")
		}
	}
	return nil
}
