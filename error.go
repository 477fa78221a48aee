package bigchain

import (
	"fmt"
)

var (
	ErrInvalidVerifyingKey = fmt.Errorf("invalid verifying key")
	ErrInvalidSigningKey   = fmt.Errorf("invalid signing key")
	ErrMissingVerifyingKey = fmt.Errorf("missing verifying key")
	ErrMissingSigningKey   = fmt.Errorf("missing signing key")
	ErrInvalidOwnerSet     = fmt.Errorf("invalid owner set")
	ErrSigningKeyMismatch  = fmt.Errorf("signing key mismatch")
	ErrInvalidTransaction  = fmt.Errorf("invalid transaction")
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
)

// AllErrors lets a structured node error response be mapped back to one of
// the driver sentinels, see RemoteError.Unwrap.
var AllErrors = []error{
	ErrInvalidVerifyingKey,
	ErrInvalidSigningKey,
	ErrMissingVerifyingKey,
	ErrMissingSigningKey,
	ErrInvalidOwnerSet,
	ErrSigningKeyMismatch,
	ErrInvalidTransaction,
	ErrTransactionNotFound,
}
