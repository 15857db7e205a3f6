package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/apperr"
)

// Gate decides whether an issuer may mint. With auto-authorization enabled
// it performs at most one grant attempt per request; the capability is fixed
// at construction, never per request.
type Gate struct {
	ledger        Ledger
	autoAuthorize bool
	logger        *slog.Logger
}

// NewGate builds the authorization gate.
func NewGate(ledger Ledger, autoAuthorize bool, logger *slog.Logger) *Gate {
	return &Gate{ledger: ledger, autoAuthorize: autoAuthorize, logger: logger}
}

// Ensure returns nil once the issuer is authorized. A failed status query is
// an infrastructure error, not grounds for a blind grant.
func (g *Gate) Ensure(ctx context.Context, issuer common.Address) error {
	authorized, err := g.ledger.IsAuthorized(ctx, issuer)
	if err != nil {
		return fmt.Errorf("failed to check university authorization: %w", err)
	}
	if authorized {
		return nil
	}

	if !g.autoAuthorize {
		return notAuthorized(issuer)
	}

	g.logger.Info("auto-authorizing issuer", "issuer", issuer.Hex())
	if _, err := g.ledger.Authorize(ctx, issuer); err != nil {
		g.logger.Warn("auto-authorization failed", "issuer", issuer.Hex(), "error", err)
		return notAuthorized(issuer)
	}
	return nil
}

func notAuthorized(issuer common.Address) error {
	return fmt.Errorf("address %s is not authorized to issue certificates: %w",
		issuer.Hex(), apperr.ErrPolicy)
}
