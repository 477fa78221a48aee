package bigchain

import (
	"crypto/ed25519"
	"crypto/rand"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// KeyPair holds a base58 encoded ed25519 seed alongside its public key. The
// signing key is only meaningful next to the verifying key it derives to,
// Validate rejects anything else.
type KeyPair struct {
	SigningKey   string
	VerifyingKey string
}

func GenerateKeyPair() (pair KeyPair, err error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	pair = KeyPair{
		SigningKey:   base58.Encode(private.Seed()),
		VerifyingKey: base58.Encode(public),
	}

	return
}

func (p KeyPair) Validate() (err error) {
	private, err := DecodeSigningKey(p.SigningKey)
	if err != nil {
		return
	}

	if p.VerifyingKey == "" {
		return errors.Wrap(ErrInvalidVerifyingKey, "verifying key must be given alongside a signing key")
	}

	if _, err = DecodeVerifyingKey(p.VerifyingKey); err != nil {
		return
	}

	derived := base58.Encode(private.Public().(ed25519.PublicKey))
	if derived != p.VerifyingKey {
		return errors.Wrap(ErrInvalidVerifyingKey, "verifying key does not match signing key")
	}

	return
}

// DecodeVerifyingKey parses a base58 encoded ed25519 public key, rejecting
// byte strings that are not canonical curve points.
func DecodeVerifyingKey(encoded string) (key ed25519.PublicKey, err error) {
	if encoded == "" {
		err = errors.Wrap(ErrInvalidVerifyingKey, "empty key")
		return
	}

	raw, err := base58.Decode(encoded)
	if err != nil {
		err = errors.Wrapf(ErrInvalidVerifyingKey, "not base58: %v", err)
		return
	}

	if len(raw) != ed25519.PublicKeySize {
		err = errors.Wrapf(ErrInvalidVerifyingKey, "expected %d key bytes, got %d", ed25519.PublicKeySize, len(raw))
		return
	}

	if _, pointErr := new(edwards25519.Point).SetBytes(raw); pointErr != nil {
		err = errors.Wrapf(ErrInvalidVerifyingKey, "not a curve point: %v", pointErr)
		return
	}

	key = ed25519.PublicKey(raw)

	return
}

// DecodeSigningKey parses a base58 encoded ed25519 seed into a full private
// key with the public half expanded.
func DecodeSigningKey(encoded string) (key ed25519.PrivateKey, err error) {
	if encoded == "" {
		err = errors.Wrap(ErrInvalidSigningKey, "empty key")
		return
	}

	raw, err := base58.Decode(encoded)
	if err != nil {
		err = errors.Wrapf(ErrInvalidSigningKey, "not base58: %v", err)
		return
	}

	if len(raw) != ed25519.SeedSize {
		err = errors.Wrapf(ErrInvalidSigningKey, "expected %d seed bytes, got %d", ed25519.SeedSize, len(raw))
		return
	}

	key = ed25519.NewKeyFromSeed(raw)

	return
}
