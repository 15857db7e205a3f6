package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/apperr"
)

func mintedTopic(t *testing.T) common.Hash {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	require.NoError(t, err)
	return parsed.Events["CredentialMinted"].ID
}

func TestParseMintedTokenID(t *testing.T) {
	topic := mintedTopic(t)
	student := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	university := common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")

	logs := []*types.Log{
		// unrelated ERC-721 Transfer log first
		{Topics: []common.Hash{common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")}},
		{Topics: []common.Hash{
			topic,
			common.BigToHash(big.NewInt(7)),
			common.BytesToHash(student.Bytes()),
			common.BytesToHash(university.Bytes()),
		}},
	}

	id, ok := parseMintedTokenID(topic, logs)
	require.True(t, ok)
	assert.Equal(t, int64(7), id.Int64())
}

func TestParseMintedTokenIDMissingEvent(t *testing.T) {
	topic := mintedTopic(t)
	logs := []*types.Log{
		{Topics: []common.Hash{common.HexToHash("0x01")}},
		{Topics: nil},
	}
	_, ok := parseMintedTokenID(topic, logs)
	assert.False(t, ok)
}

func TestMapCallError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"revert is not found", errors.New("execution reverted: ERC721: invalid token ID"), apperr.ErrNotFound},
		{"timeout is unavailable", fmt.Errorf("call: %w", context.DeadlineExceeded), apperr.ErrUnavailable},
		{"transport is unavailable", errors.New("connection refused"), apperr.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapCallError("getCredential", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapTransactError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"contract authorization revert", errors.New("execution reverted: Not authorized university"), apperr.ErrPolicy},
		{"ownable revert", errors.New("execution reverted: Ownable: caller is not the owner"), apperr.ErrPolicy},
		{"node down", errors.New("dial tcp: connection refused"), apperr.ErrUnavailable},
		{"timeout", fmt.Errorf("send: %w", context.DeadlineExceeded), apperr.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapTransactError("mintCredential", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
