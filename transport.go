package bigchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

type TransportOptions struct {
	Nodes []string

	// Timeout bounds each individual node attempt.
	Timeout time.Duration

	// ReadAttempts caps how many nodes a read-only request may fail over
	// across. Defaults to the pool size.
	ReadAttempts int

	Client *http.Client
}

func (o *TransportOptions) setDefaults() {
	if o.Timeout == 0 {
		o.Timeout = defaultTransportOptions.Timeout
	}
}

var defaultTransportOptions = &TransportOptions{
	Timeout: 10 * time.Second,
}

func NewTransport(options *TransportOptions) (transport *Transport, err error) {
	if options == nil {
		options = &TransportOptions{}
	}
	options.setDefaults()

	pool, err := NewPool(options.Nodes...)
	if err != nil {
		return
	}

	readAttempts := options.ReadAttempts
	if readAttempts <= 0 {
		readAttempts = pool.Size()
	}

	client := options.Client
	if client == nil {
		client = &http.Client{Timeout: options.Timeout}
	}

	transport = &Transport{
		pool:         pool,
		client:       client,
		readAttempts: readAttempts,
		log:          Logger(),
	}

	return
}

// Transport routes each request to the next node in the pool and defines the
// failover semantics: GETs may retry on further nodes after a transport
// failure, anything mutating gets exactly one attempt.
type Transport struct {
	pool         *Pool
	client       *http.Client
	readAttempts int
	log          *zerolog.Logger
}

func (t *Transport) Pool() *Pool {
	return t.pool
}

// ForwardRequest picks a node, issues the call, and returns the raw response
// body on success. The body is passed through untouched; interpreting it is
// the caller's job.
func (t *Transport) ForwardRequest(ctx context.Context, method, path string, body []byte, query url.Values) (out []byte, err error) {
	attempts := 1
	if method == http.MethodGet {
		attempts = t.readAttempts
	}

	for attempt := 0; attempt < attempts; attempt++ {
		node := t.pool.Next()
		out, err = t.forward(ctx, node, method, path, body, query)

		var nodeErr *NodeError
		if err != nil && errors.As(err, &nodeErr) && attempt+1 < attempts && ctx.Err() == nil {
			t.log.Warn().Msgf("node %s unreachable, failing over: %v", node.URL, nodeErr.Err)
			continue
		}

		return
	}

	return
}

func (t *Transport) forward(ctx context.Context, node Node, method, path string, body []byte, query url.Values) (out []byte, err error) {
	endpoint := node.URL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		err = errors.WithStack(err)
		return
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := t.client.Do(req)
	if err != nil {
		err = &NodeError{Node: node, Err: err}
		return
	}
	defer func() {
		_ = rsp.Body.Close()
	}()

	out, err = io.ReadAll(rsp.Body)
	if err != nil {
		err = &NodeError{Node: node, Err: err}
		return
	}

	t.log.Debug().Msgf("%s %s: [%d] %d bytes", method, endpoint, rsp.StatusCode, len(out))

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		parsed := gjson.ParseBytes(out)
		remote := &RemoteError{
			Node:       node,
			StatusCode: rsp.StatusCode,
			Message:    parsed.Get("error").String(),
			Details:    parsed.Get("details").String(),
		}
		if remote.Message == "" {
			remote.Message = parsed.Get("message").String()
		}
		err = remote
		return
	}

	return
}

func (t *Transport) Get(ctx context.Context, path string, query url.Values, target any) (err error) {
	out, err := t.ForwardRequest(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return
	}
	return unmarshalBody(out, target)
}

func (t *Transport) Post(ctx context.Context, path string, in any, target any) (err error) {
	jsn, err := json.Marshal(in)
	if err != nil {
		return errors.WithStack(err)
	}

	out, err := t.ForwardRequest(ctx, http.MethodPost, path, jsn, nil)
	if err != nil {
		return
	}
	return unmarshalBody(out, target)
}

func unmarshalBody(body []byte, target any) (err error) {
	if target == nil {
		return
	}

	err = json.Unmarshal(body, target)
	if err != nil {
		err = errors.Wrapf(err, "unable to unmarshal body: %s", string(body))
	}

	return
}

// NodeError is a transport-level failure (connection refused, timeout) for a
// single node attempt.
type NodeError struct {
	Node Node
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s unreachable: %v", e.Node.URL, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// RemoteError is a structured non-2xx response from a node. It carries the
// status code and whatever message and details the node reported.
type RemoteError struct {
	Node       Node
	StatusCode int
	Message    string
	Details    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node %s responded %d", e.Node.URL, e.StatusCode)
	}
	return fmt.Sprintf("node %s responded %d: %s", e.Node.URL, e.StatusCode, e.Message)
}

// Unwrap maps the server-reported message back onto a driver sentinel where
// one matches, so errors.Is(err, ErrTransactionNotFound) works on a 404.
func (e *RemoteError) Unwrap() error {
	for _, match := range AllErrors {
		if e.Message == match.Error() {
			return match
		}
	}
	return nil
}
