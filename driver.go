package bigchain

import (
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Options struct {
	// Nodes are the federation endpoints to spread requests over. Defaults
	// to a single local node, see DefaultNode.
	Nodes []string

	// VerifyingKey and SigningKey bind a default keypair to the driver. A
	// verifying key on its own configures an unsigned-capable driver; a
	// signing key must always be accompanied by its verifying key.
	VerifyingKey string
	SigningKey   string

	Timeout      time.Duration
	ReadAttempts int

	// Transport overrides the default transport entirely, in which case
	// Nodes, Timeout and ReadAttempts are ignored.
	Transport *Transport
}

// New validates the key material and builds a driver. Validation happens
// here, before any network I/O is possible: a malformed verifying key fails
// with ErrInvalidVerifyingKey, a malformed signing key with
// ErrInvalidSigningKey, and a signing key supplied without its matching
// verifying key with ErrInvalidVerifyingKey.
func New(options *Options) (driver *Driver, err error) {
	if options == nil {
		options = &Options{}
	}

	if options.VerifyingKey != "" {
		if _, err = DecodeVerifyingKey(options.VerifyingKey); err != nil {
			return
		}
	}

	if options.SigningKey != "" {
		// checked before the key format: a signing key is meaningless
		// without its verifying key
		if options.VerifyingKey == "" {
			err = errors.Wrap(ErrInvalidVerifyingKey, "verifying key must be given when a signing key is given")
			return
		}

		var private ed25519.PrivateKey
		private, err = DecodeSigningKey(options.SigningKey)
		if err != nil {
			return
		}

		derived := base58.Encode(private.Public().(ed25519.PublicKey))
		if derived != options.VerifyingKey {
			err = errors.Wrap(ErrInvalidVerifyingKey, "verifying key does not match signing key")
			return
		}
	}

	transport := options.Transport
	if transport == nil {
		transport, err = NewTransport(&TransportOptions{
			Nodes:        options.Nodes,
			Timeout:      options.Timeout,
			ReadAttempts: options.ReadAttempts,
		})
		if err != nil {
			return
		}
	}

	// driver state is read-only after construction, never share the
	// caller's options
	opts := *options
	opts.Nodes = append([]string(nil), options.Nodes...)

	driver = &Driver{
		options:   &opts,
		transport: transport,
		log:       Logger(),
	}
	driver.transactions = &TransactionsEndpoint{driver: driver}

	return
}

// TempDriver builds a driver against a single node with a keypair generated
// on the fly.
func TempDriver(node string) (driver *Driver, err error) {
	pair, err := GenerateKeyPair()
	if err != nil {
		return
	}

	return New(&Options{
		Nodes:        []string{node},
		VerifyingKey: pair.VerifyingKey,
		SigningKey:   pair.SigningKey,
	})
}

// Driver is safe for concurrent use; the round-robin cursor inside the
// transport's pool is the only shared mutable state.
type Driver struct {
	options      *Options
	transport    *Transport
	log          *zerolog.Logger
	transactions *TransactionsEndpoint
}

func (d *Driver) Nodes() []Node {
	return d.transport.Pool().Nodes()
}

func (d *Driver) VerifyingKey() string {
	return d.options.VerifyingKey
}

func (d *Driver) SigningKey() string {
	return d.options.SigningKey
}

func (d *Driver) Transport() *Transport {
	return d.transport
}

func (d *Driver) Transactions() *TransactionsEndpoint {
	return d.transactions
}
