package eth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"credchain/internal/apperr"
)

// Client wraps the CredentialNFT contract behind one RPC connection and one
// signing key. Safe for concurrent use; transaction submissions serialize
// through a mutex so in-process callers cannot race on the account nonce.
type Client struct {
	backend  *ethclient.Client
	contract *bind.BoundContract
	abi      abi.ABI
	auth     *bind.TransactOpts

	mintedTopic common.Hash

	callTimeout time.Duration
	txTimeout   time.Duration

	txMu   sync.Mutex
	logger *slog.Logger
}

// Options configures Dial.
type Options struct {
	RPCURL          string
	PrivateKey      string // hex, with or without 0x prefix
	ContractAddress string
	ChainID         int64
	CallTimeout     time.Duration
	TxTimeout       time.Duration
}

// Dial connects to the RPC node and binds the contract.
func Dial(opts Options, logger *slog.Logger) (*Client, error) {
	backend, err := ethclient.Dial(opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc node: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(opts.ChainID))
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	if !common.IsHexAddress(opts.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", opts.ContractAddress)
	}
	addr := common.HexToAddress(opts.ContractAddress)

	return &Client{
		backend:     backend,
		contract:    bind.NewBoundContract(addr, parsed, backend, backend, backend),
		abi:         parsed,
		auth:        auth,
		mintedTopic: parsed.Events["CredentialMinted"].ID,
		callTimeout: opts.CallTimeout,
		txTimeout:   opts.TxTimeout,
		logger:      logger,
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.backend.Close()
}

// Signer returns the address the client signs transactions with (the
// contract owner for authorize calls).
func (c *Client) Signer() common.Address {
	return c.auth.From
}

// Mint submits a mint transaction and waits for inclusion. The token id is
// decoded from the CredentialMinted event; if the receipt carries no
// parseable event the result is returned with Degraded set rather than a
// fabricated id.
func (c *Client) Mint(ctx context.Context, student common.Address, name, course, date, hash string) (MintResult, error) {
	tx, err := c.transact(ctx, "mintCredential", student, name, course, date, hash)
	if err != nil {
		return MintResult{}, err
	}

	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return MintResult{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return MintResult{}, fmt.Errorf("mint transaction %s reverted on-chain: %w", tx.Hash(), apperr.ErrUnavailable)
	}

	tokenID, ok := parseMintedTokenID(c.mintedTopic, receipt.Logs)
	if !ok {
		c.logger.Warn("mint confirmed but CredentialMinted event not found in receipt",
			"tx", tx.Hash().Hex())
		return MintResult{TxHash: tx.Hash(), Degraded: true}, nil
	}
	return MintResult{TokenID: tokenID, TxHash: tx.Hash()}, nil
}

// Credential reads the immutable record for tokenID.
func (c *Client) Credential(ctx context.Context, tokenID *big.Int) (Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCredential", tokenID)
	if err != nil {
		return Credential{}, mapCallError("getCredential", err)
	}
	cred := *abi.ConvertType(out[0], new(Credential)).(*Credential)
	return cred, nil
}

// OwnerOf returns the current holder of tokenID.
func (c *Client) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, mapCallError("ownerOf", err)
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// IsAuthorized reads the issuer authorization flag.
func (c *Client) IsAuthorized(ctx context.Context, issuer common.Address) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "authorizedUniversities", issuer)
	if err != nil {
		return false, mapCallError("authorizedUniversities", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// Authorize grants mint permission to issuer. Requires the signing key to be
// the contract owner; the contract itself makes repeat grants a no-op.
func (c *Client) Authorize(ctx context.Context, issuer common.Address) (common.Hash, error) {
	tx, err := c.transact(ctx, "authorizeUniversity", issuer)
	if err != nil {
		return common.Hash{}, err
	}
	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return common.Hash{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Hash{}, fmt.Errorf("authorize transaction %s reverted on-chain: %w", tx.Hash(), apperr.ErrPolicy)
	}
	return tx.Hash(), nil
}

// VerifyHash checks hash against the degreeHash stored for tokenID.
func (c *Client) VerifyHash(ctx context.Context, tokenID *big.Int, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "verifyCredential", tokenID, hash)
	if err != nil {
		return false, mapCallError("verifyCredential", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	opts := *c.auth
	opts.Context = ctx

	// One in-flight submission at a time; the node assigns nonces per
	// account and concurrent submissions from this process would race.
	c.txMu.Lock()
	tx, err := c.contract.Transact(&opts, method, args...)
	c.txMu.Unlock()
	if err != nil {
		return nil, mapTransactError(method, err)
	}
	return tx, nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.txTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("transaction %s not confirmed within %s: %w", tx.Hash(), c.txTimeout, apperr.ErrUnavailable)
		}
		return nil, fmt.Errorf("waiting for transaction %s: %w", tx.Hash(), apperr.ErrUnavailable)
	}
	return receipt, nil
}

// mapCallError translates read-call failures into the internal taxonomy.
// A revert on a view means the token does not exist; everything else is a
// transport-level failure.
func mapCallError(method string, err error) error {
	switch {
	case errors.Is(err, bind.ErrNoCode):
		return fmt.Errorf("%s: no contract code at configured address: %w", method, apperr.ErrUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s timed out: %w", method, apperr.ErrUnavailable)
	case isRevert(err):
		return fmt.Errorf("%s reverted: %w", method, apperr.ErrNotFound)
	default:
		return fmt.Errorf("%s failed: %v: %w", method, err, apperr.ErrUnavailable)
	}
}

// mapTransactError translates submission failures. Gas estimation surfaces
// contract require() messages, so an authorization revert is detectable
// before the transaction is ever sent.
func mapTransactError(method string, err error) error {
	switch {
	case errors.Is(err, bind.ErrNoCode):
		return fmt.Errorf("%s: no contract code at configured address: %w", method, apperr.ErrUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s timed out: %w", method, apperr.ErrUnavailable)
	case strings.Contains(err.Error(), "Not authorized"),
		strings.Contains(err.Error(), "Ownable"):
		return fmt.Errorf("%s rejected by contract: %v: %w", method, err, apperr.ErrPolicy)
	case isRevert(err):
		return fmt.Errorf("%s reverted: %v: %w", method, err, apperr.ErrPolicy)
	default:
		return fmt.Errorf("%s failed: %v: %w", method, err, apperr.ErrUnavailable)
	}
}

func isRevert(err error) bool {
	return strings.Contains(err.Error(), "execution reverted") ||
		strings.Contains(err.Error(), "revert")
}
