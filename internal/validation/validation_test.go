package validation

import (
	"strings"
	"testing"

	"lzpending/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOwner(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "checksummed", input: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", want: "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"},
		{name: "surrounding space", input: "  0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC ", want: "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"},
		{name: "bytes32 owner", input: "0x" + strings.Repeat("AB", 32), want: "0x" + strings.Repeat("ab", 32)},
		{name: "short hex", input: "0x1234", want: "0x1234"},
		{name: "non-evm", input: "owner.near", want: "owner.near"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOwner(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsEVMAddress(t *testing.T) {
	assert.True(t, IsEVMAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, IsEVMAddress("70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.False(t, IsEVMAddress("0x"+strings.Repeat("ab", 32)))
	assert.False(t, IsEVMAddress("0x"+strings.Repeat("z", 40)))
}

func TestValidateTxHash(t *testing.T) {
	assert.NoError(t, ValidateTxHash("0x"+strings.Repeat("ab", 32)))
	assert.Error(t, ValidateTxHash("0x"+strings.Repeat("ab", 31)))
	assert.Error(t, ValidateTxHash("0x"+strings.Repeat("zz", 32)))
	assert.Error(t, ValidateTxHash(strings.Repeat("ab", 33)))
}

func TestValidateFilePath(t *testing.T) {
	assert.NoError(t, ValidateFilePath("lzpending.db"))
	assert.NoError(t, ValidateFilePath("/var/lib/lzpending/lzpending.db"))
	assert.NoError(t, ValidateFilePath("data/..cache/db.sqlite"))
	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("../etc/passwd"))
	assert.Error(t, ValidateFilePath("data/../../secret.db"))
}
