package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"credchain/internal/apperr"
	"credchain/internal/credential"
	"credchain/internal/eth"
	"credchain/internal/handlers"
	"credchain/internal/profile"
	"credchain/internal/router"
)

const (
	studentAddr = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	issuerAddr  = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
)

// fakeLedger implements credential.Ledger in memory.
type fakeLedger struct {
	mu          sync.Mutex
	authorized  map[common.Address]bool
	credentials map[string]eth.Credential
	owners      map[string]common.Address
	nextID      int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		authorized:  make(map[common.Address]bool),
		credentials: make(map[string]eth.Credential),
		owners:      make(map[string]common.Address),
		nextID:      1,
	}
}

func (f *fakeLedger) Mint(_ context.Context, student common.Address, name, course, date, hash string) (eth.MintResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := big.NewInt(f.nextID)
	f.nextID++
	f.credentials[id.String()] = eth.Credential{
		StudentName:    name,
		Course:         course,
		GraduationDate: date,
		DegreeHash:     hash,
		University:     common.HexToAddress(issuerAddr),
	}
	f.owners[id.String()] = student
	return eth.MintResult{TokenID: id, TxHash: common.HexToHash(fmt.Sprintf("0x%064x", id))}, nil
}

func (f *fakeLedger) Credential(_ context.Context, tokenID *big.Int) (eth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.credentials[tokenID.String()]
	if !ok {
		return eth.Credential{}, fmt.Errorf("getCredential reverted: %w", apperr.ErrNotFound)
	}
	return cred, nil
}

func (f *fakeLedger) OwnerOf(_ context.Context, tokenID *big.Int) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, ok := f.owners[tokenID.String()]
	if !ok {
		return common.Address{}, fmt.Errorf("ownerOf reverted: %w", apperr.ErrNotFound)
	}
	return owner, nil
}

func (f *fakeLedger) IsAuthorized(_ context.Context, issuer common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized[issuer], nil
}

func (f *fakeLedger) Authorize(_ context.Context, issuer common.Address) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized[issuer] = true
	return common.HexToHash("0xfeed"), nil
}

func (f *fakeLedger) VerifyHash(_ context.Context, tokenID *big.Int, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.credentials[tokenID.String()]
	if !ok {
		return false, nil
	}
	return cred.DegreeHash == hash, nil
}

type HandlerSuite struct {
	suite.Suite
	ledger *fakeLedger
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.ledger = newFakeLedger()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := credential.NewGate(s.ledger, false, logger)
	svc := credential.NewService(s.ledger, gate, nil, 1, logger)
	h := handlers.New(svc, profile.NewStore(), []byte("test-share-secret"), "http://localhost:3000", logger)
	s.router = router.New(h, logger)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func (s *HandlerSuite) mintAlice() string {
	s.ledger.authorized[common.HexToAddress(issuerAddr)] = true
	rec, body := s.do(http.MethodPost, "/api/credentials/mint", map[string]any{
		"studentAddress":    studentAddr,
		"studentName":       "Alice",
		"course":            "CS101",
		"graduationDate":    "2024-06-01",
		"degreeHash":        "deadbeef",
		"universityAddress": issuerAddr,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	return fmt.Sprintf("%v", body["tokenId"])
}

func (s *HandlerSuite) TestMintMissingField() {
	rec, body := s.do(http.MethodPost, "/api/credentials/mint", map[string]any{
		"studentAddress": studentAddr,
		"studentName":    "Alice",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["error"], "required")
}

func (s *HandlerSuite) TestMintMalformedAddress() {
	for _, bad := range []string{"0x1234", strings.TrimPrefix(studentAddr, "0x")} {
		rec, body := s.do(http.MethodPost, "/api/credentials/mint", map[string]any{
			"studentAddress":    bad,
			"studentName":       "Alice",
			"course":            "CS101",
			"graduationDate":    "2024-06-01",
			"degreeHash":        "deadbeef",
			"universityAddress": issuerAddr,
		})
		s.Equal(http.StatusBadRequest, rec.Code, "address %q", bad)
		s.Contains(body["error"], "40 hex")
	}
}

func (s *HandlerSuite) TestMintUnauthorizedIssuer() {
	rec, body := s.do(http.MethodPost, "/api/credentials/mint", map[string]any{
		"studentAddress":    studentAddr,
		"studentName":       "Alice",
		"course":            "CS101",
		"graduationDate":    "2024-06-01",
		"degreeHash":        "deadbeef",
		"universityAddress": issuerAddr,
	})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(body["error"], "not authorized")
}

func (s *HandlerSuite) TestMintAndVerifyRoundTrip() {
	tokenID := s.mintAlice()
	s.Equal("1", tokenID)

	rec, body := s.do(http.MethodGet, "/api/credentials/verify/"+tokenID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["success"])

	cred := body["credential"].(map[string]any)
	s.Equal("Alice", cred["studentName"])
	s.Equal("CS101", cred["course"])
	s.Equal("2024-06-01", cred["graduationDate"])
	s.Equal("deadbeef", cred["degreeHash"])
	s.Equal(common.HexToAddress(issuerAddr).Hex(), cred["university"])
	s.Equal(common.HexToAddress(studentAddr).Hex(), cred["owner"])
}

func (s *HandlerSuite) TestVerifyUnknownToken() {
	rec, body := s.do(http.MethodGet, "/api/credentials/verify/9999999", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Credential not found or invalid", body["error"])
}

func (s *HandlerSuite) TestVerifyMalformedTokenCollapsesToNotFound() {
	rec, body := s.do(http.MethodGet, "/api/credentials/verify/not-a-number", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Credential not found or invalid", body["error"])
}

func (s *HandlerSuite) TestVerifyHash() {
	tokenID := s.mintAlice()

	rec, body := s.do(http.MethodPost, "/api/credentials/verify-hash", map[string]any{
		"tokenId":    tokenID, // string form
		"degreeHash": "deadbeef",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["isValid"])

	rec, body = s.do(http.MethodPost, "/api/credentials/verify-hash", map[string]any{
		"tokenId":    1, // numeric form
		"degreeHash": "cafebabe",
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(false, body["isValid"])
}

func (s *HandlerSuite) TestAuthorizeUniversity() {
	rec, body := s.do(http.MethodPost, "/api/credentials/authorize-university", map[string]any{})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("University address is required", body["error"])

	rec, body = s.do(http.MethodPost, "/api/credentials/authorize-university", map[string]any{
		"universityAddress": issuerAddr,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(body["message"], "has been authorized")
	s.NotEmpty(body["transactionHash"])

	// idempotent: second call succeeds without a new transaction
	rec, body = s.do(http.MethodPost, "/api/credentials/authorize-university", map[string]any{
		"universityAddress": issuerAddr,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(body["message"], "already authorized")
}

func (s *HandlerSuite) TestProfileRoundTrip() {
	rec, body := s.do(http.MethodPost, "/api/profile/update", map[string]any{
		"name":          "Alice",
		"email":         "alice@example.com",
		"walletAddress": studentAddr,
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["success"])
	s.Regexp(`^0x[0-9a-f]{64}$`, body["transactionHash"])

	// lookup is case-insensitive
	rec, body = s.do(http.MethodGet, "/api/profile/"+strings.ToLower(studentAddr), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	p := body["profile"].(map[string]any)
	s.Equal("Alice", p["name"])
}

func (s *HandlerSuite) TestProfileUpdateRequiresWallet() {
	rec, body := s.do(http.MethodPost, "/api/profile/update", map[string]any{"name": "Alice"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body["error"], "wallet address")
}

func (s *HandlerSuite) TestProfileNotFound() {
	rec, body := s.do(http.MethodGet, "/api/profile/0x0000000000000000000000000000000000000000", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Profile not found", body["error"])
}

func (s *HandlerSuite) TestCredentialQRCode() {
	tokenID := s.mintAlice()

	rec, _ := s.do(http.MethodGet, "/api/credentials/"+tokenID+"/qrcode", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	s.NotEmpty(rec.Body.Bytes())
}

func (s *HandlerSuite) TestQRCodeUnknownToken() {
	rec, _ := s.do(http.MethodGet, "/api/credentials/9999999/qrcode", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestShareLinkFlow() {
	tokenID := s.mintAlice()

	rec, body := s.do(http.MethodPost, "/api/credentials/share", map[string]any{
		"tokenId":        tokenID,
		"expiresInHours": 24,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	url := body["shareableUrl"].(string)
	s.Contains(url, "/verify/"+tokenID+"?token=")

	token := url[strings.Index(url, "?token=")+len("?token="):]
	rec, body = s.do(http.MethodGet, "/api/credentials/info/"+tokenID+"?token="+token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	cred := body["credential"].(map[string]any)
	s.Equal("Alice", cred["studentName"])
}

func (s *HandlerSuite) TestShareLinkRejectsBadToken() {
	tokenID := s.mintAlice()

	rec, _ := s.do(http.MethodGet, "/api/credentials/info/"+tokenID+"?token=garbage", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/credentials/info/"+tokenID, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestShareLinkExpiryBounds() {
	tokenID := s.mintAlice()

	for _, hours := range []int{0, 169} {
		rec, body := s.do(http.MethodPost, "/api/credentials/share", map[string]any{
			"tokenId":        tokenID,
			"expiresInHours": hours,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(body["error"], "between 1 and 168")
	}
}
