package domain

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Fatal pre-flight failures. Both abort the run before any boundary call.
var (
	ErrMissingCredentials   = errors.New("exchange credentials are not set")
	ErrConfirmationRequired = errors.New("live trading requires explicit confirmation")
)

// InsufficientReserveError reports that the reserve asset cannot cover the
// quote shortfall. Recoverable: the caller skips the symbol or keeps waiting.
type InsufficientReserveError struct {
	Asset     string
	Shortfall decimal.Decimal
}

func (e *InsufficientReserveError) Error() string {
	return fmt.Sprintf("insufficient %s reserve to cover quote shortfall of %s", e.Asset, e.Shortfall.String())
}

// IsInsufficientReserve reports whether err wraps an InsufficientReserveError.
func IsInsufficientReserve(err error) bool {
	var target *InsufficientReserveError
	return errors.As(err, &target)
}
