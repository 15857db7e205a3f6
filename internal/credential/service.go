package credential

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/apperr"
	"credchain/internal/eth"
)

// Ledger is the contract surface the service needs. *eth.Client implements
// it; tests substitute a fake.
type Ledger interface {
	Mint(ctx context.Context, student common.Address, name, course, date, hash string) (eth.MintResult, error)
	Credential(ctx context.Context, tokenID *big.Int) (eth.Credential, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	IsAuthorized(ctx context.Context, issuer common.Address) (bool, error)
	Authorize(ctx context.Context, issuer common.Address) (common.Hash, error)
	VerifyHash(ctx context.Context, tokenID *big.Int, hash string) (bool, error)
}

// Service orchestrates mint, lookup and verification against the ledger.
type Service struct {
	ledger  Ledger
	gate    *Gate
	cache   Cache
	retries uint64
	logger  *slog.Logger
}

// NewService builds a Service. cache may be nil, in which case lookups always
// hit the ledger.
func NewService(ledger Ledger, gate *Gate, cache Cache, readRetries uint64, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{ledger: ledger, gate: gate, cache: cache, retries: readRetries, logger: logger}
}

// MintRequest carries the six required mint fields.
type MintRequest struct {
	StudentAddress    string `json:"studentAddress"`
	StudentName       string `json:"studentName"`
	Course            string `json:"course"`
	GraduationDate    string `json:"graduationDate"`
	DegreeHash        string `json:"degreeHash"`
	UniversityAddress string `json:"universityAddress"`
}

func (r MintRequest) validate() error {
	var missing []string
	for field, v := range map[string]string{
		"studentAddress":    r.StudentAddress,
		"studentName":       r.StudentName,
		"course":            r.Course,
		"graduationDate":    r.GraduationDate,
		"degreeHash":        r.DegreeHash,
		"universityAddress": r.UniversityAddress,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("all fields are required: %w", apperr.ErrValidation)
	}
	if !validAddress(r.StudentAddress) {
		return fmt.Errorf("studentAddress must be 0x followed by 40 hex characters: %w", apperr.ErrValidation)
	}
	if !validAddress(r.UniversityAddress) {
		return fmt.Errorf("universityAddress must be 0x followed by 40 hex characters: %w", apperr.ErrValidation)
	}
	return nil
}

// validAddress requires the 0x prefix; common.IsHexAddress alone would also
// accept the bare 40-hex form.
func validAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// MintOutcome reports a confirmed mint. TokenID is empty when Degraded is
// set: the transaction succeeded but the event log could not be decoded, so
// no identifier is fabricated.
type MintOutcome struct {
	TokenID  string
	TxHash   string
	Degraded bool
}

// Mint validates the request, enforces issuer authorization, then submits
// the mint transaction. Validation happens before any network call.
func (s *Service) Mint(ctx context.Context, req MintRequest) (MintOutcome, error) {
	if err := req.validate(); err != nil {
		return MintOutcome{}, err
	}
	issuer := common.HexToAddress(req.UniversityAddress)
	student := common.HexToAddress(req.StudentAddress)

	if err := s.gate.Ensure(ctx, issuer); err != nil {
		return MintOutcome{}, err
	}

	res, err := s.ledger.Mint(ctx, student, req.StudentName, req.Course, req.GraduationDate, req.DegreeHash)
	if err != nil {
		return MintOutcome{}, err
	}
	if res.Degraded {
		s.logger.Warn("degraded mint: token id unparseable from receipt",
			"tx", res.TxHash.Hex(), "issuer", issuer.Hex())
		return MintOutcome{TxHash: res.TxHash.Hex(), Degraded: true}, nil
	}
	return MintOutcome{TokenID: res.TokenID.String(), TxHash: res.TxHash.Hex()}, nil
}

// CredentialView merges the immutable record with the live owner.
type CredentialView struct {
	StudentName    string `json:"studentName"`
	Course         string `json:"course"`
	GraduationDate string `json:"graduationDate"`
	DegreeHash     string `json:"degreeHash"`
	University     string `json:"university"`
	Owner          string `json:"owner"`
}

// GetCredential looks up a credential and its current owner. The immutable
// record is served from cache when available; the owner is always read live
// because it changes on transfer.
func (s *Service) GetCredential(ctx context.Context, tokenID string) (CredentialView, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return CredentialView{}, err
	}
	key := id.String()

	cred, ok := s.cache.GetCredential(ctx, key)
	if !ok {
		cred, err = retryRead(ctx, s.retries, func(ctx context.Context) (eth.Credential, error) {
			return s.ledger.Credential(ctx, id)
		})
		if err != nil {
			return CredentialView{}, err
		}
		s.cache.PutCredential(ctx, key, cred)
	}

	owner, err := retryRead(ctx, s.retries, func(ctx context.Context) (common.Address, error) {
		return s.ledger.OwnerOf(ctx, id)
	})
	if err != nil {
		return CredentialView{}, err
	}

	return CredentialView{
		StudentName:    cred.StudentName,
		Course:         cred.Course,
		GraduationDate: cred.GraduationDate,
		DegreeHash:     cred.DegreeHash,
		University:     cred.University.Hex(),
		Owner:          owner.Hex(),
	}, nil
}

// VerifyHash compares hash against the degreeHash stored for tokenID.
func (s *Service) VerifyHash(ctx context.Context, tokenID, hash string) (bool, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return false, err
	}
	return retryRead(ctx, s.retries, func(ctx context.Context) (bool, error) {
		return s.ledger.VerifyHash(ctx, id, hash)
	})
}

// AuthorizeOutcome reports the result of an explicit authorization request.
type AuthorizeOutcome struct {
	AlreadyAuthorized bool
	TxHash            string
}

// AuthorizeIssuer grants mint permission to the given address. Already
// authorized issuers succeed without a new transaction; the ledger makes the
// grant itself idempotent either way.
func (s *Service) AuthorizeIssuer(ctx context.Context, address string) (AuthorizeOutcome, error) {
	if strings.TrimSpace(address) == "" {
		return AuthorizeOutcome{}, fmt.Errorf("university address is required: %w", apperr.ErrValidation)
	}
	if !validAddress(address) {
		return AuthorizeOutcome{}, fmt.Errorf("university address must be 0x followed by 40 hex characters: %w", apperr.ErrValidation)
	}
	issuer := common.HexToAddress(address)

	authorized, err := retryRead(ctx, s.retries, func(ctx context.Context) (bool, error) {
		return s.ledger.IsAuthorized(ctx, issuer)
	})
	if err != nil {
		// The grant is still safe to attempt: the contract no-ops on
		// repeat authorization.
		s.logger.Warn("authorization status check failed, proceeding with grant",
			"issuer", issuer.Hex(), "error", err)
	} else if authorized {
		return AuthorizeOutcome{AlreadyAuthorized: true}, nil
	}

	txHash, err := s.ledger.Authorize(ctx, issuer)
	if err != nil {
		return AuthorizeOutcome{}, err
	}
	return AuthorizeOutcome{TxHash: txHash.Hex()}, nil
}

// parseTokenID accepts a positive decimal integer of any size.
func parseTokenID(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("token id must be a non-negative integer, got %q: %w", raw, apperr.ErrValidation)
	}
	return id, nil
}
