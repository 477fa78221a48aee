package bigchain

import (
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// DefaultNode is used when a driver is constructed without any node URLs.
const DefaultNode = "http://localhost:9984/api/v1"

// Node is a configured federation endpoint, immutable for the lifetime of
// the driver.
type Node struct {
	URL string
}

// Pool hands out nodes in round-robin order. The only mutable state is the
// cursor, advanced by a single atomic add so concurrent callers never skip
// or duplicate a position.
type Pool struct {
	nodes  []Node
	cursor atomic.Uint64
}

func NewPool(urls ...string) (pool *Pool, err error) {
	if len(urls) == 0 {
		urls = []string{DefaultNode}
	}

	pool = &Pool{}
	for _, url := range urls {
		trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
		if trimmed == "" {
			return nil, errors.New("node url cannot be empty")
		}
		pool.nodes = append(pool.nodes, Node{URL: trimmed})
	}

	return
}

// Next returns the next node in cyclic order, starting from the first
// configured node.
func (p *Pool) Next() Node {
	i := p.cursor.Add(1) - 1
	return p.nodes[i%uint64(len(p.nodes))]
}

// Nodes returns a copy of the configured node set, never the cursor state.
func (p *Pool) Nodes() []Node {
	return append([]Node(nil), p.nodes...)
}

func (p *Pool) Size() int {
	return len(p.nodes)
}
