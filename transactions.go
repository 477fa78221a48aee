package bigchain

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

const transactionsPath = "/transactions/"

// Status of a submitted transaction as reported by the federation.
type Status string

const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusUndecided Status = "undecided"
	StatusBacklog   Status = "backlog"
)

// TransactionsEndpoint exposes the /transactions operations of the
// federation. Key material is validated before any network I/O; a request
// that cannot be signed is never partially submitted.
type TransactionsEndpoint struct {
	driver *Driver
}

type CreateIn struct {
	Payload json.RawMessage

	// Per-call overrides for the driver-bound keypair.
	VerifyingKey string
	SigningKey   string
}

// Create issues a CREATE transaction establishing a new asset owned by the
// effective verifying key, signed with the effective signing key.
func (e *TransactionsEndpoint) Create(ctx context.Context, in *CreateIn) (out *Transaction, err error) {
	if in == nil {
		in = &CreateIn{}
	}

	signingKey, err := resolveKey(in.SigningKey, e.driver.SigningKey(), ErrMissingSigningKey)
	if err != nil {
		return
	}

	verifyingKey, err := resolveKey(in.VerifyingKey, e.driver.VerifyingKey(), ErrMissingVerifyingKey)
	if err != nil {
		return
	}

	tx, err := NewCreateTransaction([]string{verifyingKey}, []string{verifyingKey}, in.Payload)
	if err != nil {
		return
	}

	signed, err := tx.Sign(signingKey)
	if err != nil {
		return
	}

	return e.push(ctx, signed)
}

type TransferIn struct {
	// Transaction is the previously retrieved transaction whose outputs are
	// being spent.
	Transaction *Transaction

	// OwnersAfter may be empty, which burns the asset.
	OwnersAfter []string

	// SigningKey overrides the driver-bound signing key.
	SigningKey string
}

// Transfer spends the outputs of a prior transaction, producing one output
// per owner in OwnersAfter.
func (e *TransactionsEndpoint) Transfer(ctx context.Context, in *TransferIn) (out *Transaction, err error) {
	if in == nil || in.Transaction == nil {
		err = errors.Wrap(ErrInvalidTransaction, "transfer requires the prior transaction")
		return
	}

	signingKey, err := resolveKey(in.SigningKey, e.driver.SigningKey(), ErrMissingSigningKey)
	if err != nil {
		return
	}

	tx, err := NewTransferTransaction(in.Transaction.ToInputs(), in.OwnersAfter)
	if err != nil {
		return
	}

	signed, err := tx.Sign(signingKey)
	if err != nil {
		return
	}

	return e.push(ctx, signed)
}

// Retrieve fetches a transaction by id. Read-only, so the transport may
// fail over to further nodes.
func (e *TransactionsEndpoint) Retrieve(ctx context.Context, txid string) (out *Transaction, err error) {
	out = &Transaction{}
	err = e.driver.transport.Get(ctx, transactionsPath+txid, nil, out)
	if err != nil {
		out = nil
	}
	return
}

type StatusOut struct {
	Status Status `json:"status"`
}

// TransactionStatus fetches the federation's status for a transaction id.
// Read-only, so the transport may fail over to further nodes.
func (e *TransactionsEndpoint) TransactionStatus(ctx context.Context, txid string) (out *StatusOut, err error) {
	out = &StatusOut{}
	err = e.driver.transport.Get(ctx, transactionsPath+txid+"/status", nil, out)
	if err != nil {
		out = nil
	}
	return
}

// push submits a signed transaction. Mutating, never retried across nodes.
func (e *TransactionsEndpoint) push(ctx context.Context, signed *Transaction) (out *Transaction, err error) {
	if !signed.IsFullySigned() {
		err = errors.Wrap(ErrSigningKeyMismatch, "refusing to submit a partially signed transaction")
		return
	}

	out = &Transaction{}
	err = e.driver.transport.Post(ctx, transactionsPath, signed, out)
	if err != nil {
		out = nil
	}
	return
}

// resolveKey applies the explicit-over-bound precedence for per-call key
// overrides.
func resolveKey(explicit, bound string, missing error) (key string, err error) {
	switch {
	case explicit != "":
		key = explicit
	case bound != "":
		key = bound
	default:
		err = errors.WithStack(missing)
	}
	return
}
