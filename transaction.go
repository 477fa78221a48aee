package bigchain

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

type Operation string

const (
	OperationCreate   Operation = "CREATE"
	OperationTransfer Operation = "TRANSFER"
)

const TransactionVersion = 1

// OutputRef points at a spendable output of a previously stored transaction.
type OutputRef struct {
	TransactionID string `json:"transaction_id"`
	OutputIndex   int    `json:"output_index"`
}

// Input consumes a prior output. Fulfills is nil only for CREATE, where the
// asset springs into existence. Fulfillment carries the base58 encoded
// signature once the transaction has been signed.
type Input struct {
	OwnersBefore []string   `json:"owners_before"`
	Fulfills     *OutputRef `json:"fulfills"`
	Fulfillment  string     `json:"fulfillment,omitempty"`
}

// Output names the owner set produced by a transaction, spendable by a
// future TRANSFER.
type Output struct {
	OwnersAfter []string `json:"owners_after"`
}

// Transaction is the wire structure submitted to and returned by federation
// nodes. The id is empty until the transaction has been signed.
type Transaction struct {
	ID        string          `json:"id,omitempty"`
	Version   int             `json:"version"`
	Operation Operation       `json:"operation"`
	Inputs    []Input         `json:"inputs"`
	Outputs   []Output        `json:"outputs"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewCreateTransaction builds an unsigned CREATE transaction establishing a
// new asset with a single input authorised by ownersBefore and a single
// output owned by ownersAfter. Both owner sets must be non-empty.
func NewCreateTransaction(ownersBefore, ownersAfter []string, payload json.RawMessage) (tx *Transaction, err error) {
	if len(ownersBefore) == 0 {
		err = errors.Wrap(ErrInvalidOwnerSet, "create requires at least one owner before")
		return
	}
	if len(ownersAfter) == 0 {
		err = errors.Wrap(ErrInvalidOwnerSet, "create requires at least one owner after")
		return
	}

	for _, owner := range append(append([]string{}, ownersBefore...), ownersAfter...) {
		if _, err = DecodeVerifyingKey(owner); err != nil {
			return
		}
	}

	tx = &Transaction{
		Version:   TransactionVersion,
		Operation: OperationCreate,
		Inputs: []Input{{
			OwnersBefore: append([]string(nil), ownersBefore...),
			Fulfills:     nil,
		}},
		Outputs: []Output{{
			OwnersAfter: append([]string(nil), ownersAfter...),
		}},
		Payload: payload,
	}

	return
}

// NewTransferTransaction builds an unsigned TRANSFER transaction consuming
// the given inputs, which must have been derived from a previously stored
// transaction (see Transaction.ToInputs). One output is produced per owner
// in ownersAfter; an empty ownersAfter is allowed and burns the asset.
func NewTransferTransaction(inputs []Input, ownersAfter []string) (tx *Transaction, err error) {
	if len(inputs) == 0 {
		err = errors.Wrap(ErrInvalidTransaction, "transfer requires at least one input")
		return
	}

	for i, input := range inputs {
		if input.Fulfills == nil || input.Fulfills.TransactionID == "" {
			err = errors.Wrapf(ErrInvalidTransaction, "input %d does not reference a prior transaction output", i)
			return
		}
		if len(input.OwnersBefore) == 0 {
			err = errors.Wrapf(ErrInvalidTransaction, "input %d has no authorising owners", i)
			return
		}
	}

	for _, owner := range ownersAfter {
		if _, err = DecodeVerifyingKey(owner); err != nil {
			return
		}
	}

	tx = &Transaction{
		Version:   TransactionVersion,
		Operation: OperationTransfer,
		Outputs:   []Output{},
		Inputs:    make([]Input, 0, len(inputs)),
	}

	for _, input := range inputs {
		ref := *input.Fulfills
		tx.Inputs = append(tx.Inputs, Input{
			OwnersBefore: append([]string(nil), input.OwnersBefore...),
			Fulfills:     &ref,
		})
	}

	for _, owner := range ownersAfter {
		tx.Outputs = append(tx.Outputs, Output{OwnersAfter: []string{owner}})
	}

	return
}

// ToInputs derives the spendable inputs from the outputs of a stored
// transaction, for consumption by a TRANSFER.
func (t *Transaction) ToInputs() (inputs []Input) {
	for i, output := range t.Outputs {
		inputs = append(inputs, Input{
			OwnersBefore: append([]string(nil), output.OwnersAfter...),
			Fulfills: &OutputRef{
				TransactionID: t.ID,
				OutputIndex:   i,
			},
		})
	}
	return
}

// SigningPayload returns the canonical byte serialization signatures are
// computed over: the transaction with its id and all fulfillments stripped.
func (t *Transaction) SigningPayload() (message []byte, err error) {
	unsigned := t.copy()
	unsigned.ID = ""
	for i := range unsigned.Inputs {
		unsigned.Inputs[i].Fulfillment = ""
	}

	message, err = json.Marshal(unsigned)
	if err != nil {
		err = errors.WithStack(err)
	}

	return
}

// IsFullySigned reports whether every input carries a fulfillment and the
// transaction id has been computed.
func (t *Transaction) IsFullySigned() bool {
	if t.ID == "" {
		return false
	}
	for _, input := range t.Inputs {
		if input.Fulfillment == "" {
			return false
		}
	}
	return true
}

func (t *Transaction) hash() (id string, err error) {
	message, err := t.SigningPayload()
	if err != nil {
		return
	}

	sum := sha3.Sum256(message)
	id = hex.EncodeToString(sum[:])

	return
}

func (t *Transaction) copy() *Transaction {
	dupe := &Transaction{
		ID:        t.ID,
		Version:   t.Version,
		Operation: t.Operation,
		Inputs:    make([]Input, len(t.Inputs)),
		Outputs:   make([]Output, len(t.Outputs)),
		Payload:   append(json.RawMessage(nil), t.Payload...),
	}
	if t.Payload == nil {
		dupe.Payload = nil
	}

	for i, input := range t.Inputs {
		dupe.Inputs[i] = Input{
			OwnersBefore: append([]string(nil), input.OwnersBefore...),
			Fulfillment:  input.Fulfillment,
		}
		if input.Fulfills != nil {
			ref := *input.Fulfills
			dupe.Inputs[i].Fulfills = &ref
		}
	}

	for i, output := range t.Outputs {
		dupe.Outputs[i] = Output{OwnersAfter: append([]string(nil), output.OwnersAfter...)}
	}

	return dupe
}
