package profile

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"credchain/internal/apperr"
)

// Profile holds self-reported contact attributes for a wallet address.
// Nothing here touches the ledger; the whole store is process-lifetime
// volatile and lost on restart. Known limitation, persistence is
// deliberately out of scope.
type Profile struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Bio           string `json:"bio"`
	WalletAddress string `json:"walletAddress"`
	Timestamp     string `json:"timestamp"`
	UpdatedAt     string `json:"updatedAt"`
}

// Store is an in-memory profile store keyed by lower-cased wallet address.
// Safe for concurrent use; updates overwrite the whole record.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]Profile)}
}

// Update overwrites the record for the profile's wallet address and returns
// a synthetic transaction hash. The hash keeps the response shape the
// frontend expects; no ledger transaction is involved.
func (s *Store) Update(p Profile) (string, error) {
	if strings.TrimSpace(p.WalletAddress) == "" {
		return "", fmt.Errorf("wallet address is required: %w", apperr.ErrValidation)
	}
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.profiles[strings.ToLower(p.WalletAddress)] = p
	s.mu.Unlock()

	return syntheticTxHash(), nil
}

// Get returns the record for a wallet address, case-insensitively.
func (s *Store) Get(walletAddress string) (Profile, error) {
	s.mu.RLock()
	p, ok := s.profiles[strings.ToLower(walletAddress)]
	s.mu.RUnlock()
	if !ok {
		return Profile{}, fmt.Errorf("profile for %s: %w", walletAddress, apperr.ErrNotFound)
	}
	return p, nil
}

func syntheticTxHash() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return "0x" + hex.EncodeToString(b[:])
}
