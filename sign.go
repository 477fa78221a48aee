package bigchain

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Sign produces a signed copy of the transaction, leaving the receiver
// untouched. Each key fulfills every input whose owners_before contains the
// key's derived public key, keys applied in the order supplied. Every input
// must end up fulfilled or the transaction would be rejected by the
// federation, in which case signing fails instead.
func (t *Transaction) Sign(signingKeys ...string) (signed *Transaction, err error) {
	if len(signingKeys) == 0 {
		err = errors.Wrap(ErrSigningKeyMismatch, "at least one signing key required")
		return
	}

	signed = t.copy()
	signed.ID = ""
	for i := range signed.Inputs {
		signed.Inputs[i].Fulfillment = ""
	}

	message, err := signed.SigningPayload()
	if err != nil {
		signed = nil
		return
	}

	for _, encoded := range signingKeys {
		private, keyErr := DecodeSigningKey(encoded)
		if keyErr != nil {
			return nil, keyErr
		}

		public := base58.Encode(private.Public().(ed25519.PublicKey))
		fulfillment := base58.Encode(ed25519.Sign(private, message))

		matched := false
		for i := range signed.Inputs {
			if containsOwner(signed.Inputs[i].OwnersBefore, public) {
				signed.Inputs[i].Fulfillment = fulfillment
				matched = true
			}
		}

		if !matched {
			return nil, errors.Wrapf(ErrSigningKeyMismatch, "key %s does not authorise any input", public)
		}
	}

	for i := range signed.Inputs {
		if signed.Inputs[i].Fulfillment == "" {
			return nil, errors.Wrapf(ErrSigningKeyMismatch, "no signing key covers input %d", i)
		}
	}

	signed.ID, err = signed.hash()
	if err != nil {
		signed = nil
	}

	return
}

// Verify checks the transaction id and every input signature against the
// canonical signing payload. This is what a federation node does on
// submission; the driver only uses it in tests and the mock node.
func (t *Transaction) Verify() (err error) {
	if !t.IsFullySigned() {
		return errors.Wrap(ErrInvalidTransaction, "transaction is not fully signed")
	}

	id, err := t.hash()
	if err != nil {
		return
	}
	if id != t.ID {
		return errors.Wrapf(ErrInvalidTransaction, "id mismatch: expected %s, got %s", id, t.ID)
	}

	message, err := t.SigningPayload()
	if err != nil {
		return
	}

	for i, input := range t.Inputs {
		signature, decodeErr := base58.Decode(input.Fulfillment)
		if decodeErr != nil {
			return errors.Wrapf(ErrInvalidTransaction, "input %d fulfillment is not base58: %v", i, decodeErr)
		}

		verified := false
		for _, owner := range input.OwnersBefore {
			public, keyErr := DecodeVerifyingKey(owner)
			if keyErr != nil {
				return keyErr
			}
			if ed25519.Verify(public, message, signature) {
				verified = true
				break
			}
		}

		if !verified {
			return errors.Wrapf(ErrInvalidTransaction, "input %d signature does not match any owner", i)
		}
	}

	return
}

func containsOwner(owners []string, owner string) bool {
	for _, o := range owners {
		if o == owner {
			return true
		}
	}
	return false
}
