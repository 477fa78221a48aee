// Package mocknode runs an in-process federation node for local development
// and driver tests. It verifies submitted transactions the way a real node
// would, keeps them in memory, and serves the retrieve and status routes.
package mocknode

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"

	bigchain "github.com/alexdcox/bigchain-go"
)

var log = bigchain.Logger()

func New() (node *MockNode) {
	node = &MockNode{
		transactions: map[string]*bigchain.Transaction{},
		statuses:     map[string]bigchain.Status{},
	}

	node.app = fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
	})
	node.app.Use(recover.New())
	node.app.Use(func(c *fiber.Ctx) error {
		node.requests.Add(1)
		rsp := c.Next()
		log.Debug().Msgf("mocknode response: [%d] %s %s", c.Response().StatusCode(), c.Method(), c.Path())
		return rsp
	})

	node.app.Post("/transactions/", node.postTransaction)
	node.app.Get("/transactions/:id", node.getTransaction)
	node.app.Get("/transactions/:id/status", node.getStatus)

	return
}

type MockNode struct {
	app      *fiber.App
	listener net.Listener
	url      string
	requests atomic.Int64

	mu           sync.Mutex
	transactions map[string]*bigchain.Transaction
	statuses     map[string]bigchain.Status
}

// Start binds a random local port and serves in the background. Use URL to
// point a driver at the node.
func (n *MockNode) Start() (err error) {
	n.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return errors.WithStack(err)
	}

	n.url = "http://" + n.listener.Addr().String()

	go func() {
		if serveErr := n.app.Listener(n.listener); serveErr != nil {
			log.Error().Msgf("mocknode stopped: %+v", serveErr)
		}
	}()

	return
}

// Listen serves on the given address and blocks.
func (n *MockNode) Listen(addr string) (err error) {
	log.Info().Msgf("mocknode listening on %s", addr)
	return errors.WithStack(n.app.Listen(addr))
}

func (n *MockNode) Stop() (err error) {
	return errors.WithStack(n.app.Shutdown())
}

func (n *MockNode) URL() string {
	return n.url
}

// Requests reports how many HTTP requests the node has served, handy for
// asserting that a failed validation never reached the network.
func (n *MockNode) Requests() int64 {
	return n.requests.Load()
}

// SetStatus overrides the reported status for a stored transaction.
func (n *MockNode) SetStatus(txid string, status bigchain.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses[txid] = status
}

func (n *MockNode) postTransaction(c *fiber.Ctx) error {
	tx := &bigchain.Transaction{}
	if err := c.BodyParser(tx); err != nil {
		return n.errorResponse(c, errors.Wrapf(bigchain.ErrInvalidTransaction, "malformed body: %v", err))
	}

	if err := tx.Verify(); err != nil {
		return n.errorResponse(c, err)
	}

	n.mu.Lock()
	n.transactions[tx.ID] = tx
	n.statuses[tx.ID] = bigchain.StatusValid
	n.mu.Unlock()

	return c.Status(http.StatusAccepted).JSON(tx)
}

func (n *MockNode) getTransaction(c *fiber.Ctx) error {
	n.mu.Lock()
	tx, ok := n.transactions[c.Params("id")]
	n.mu.Unlock()

	if !ok {
		return n.errorResponse(c, bigchain.ErrTransactionNotFound)
	}

	return c.JSON(tx)
}

func (n *MockNode) getStatus(c *fiber.Ctx) error {
	n.mu.Lock()
	status, ok := n.statuses[c.Params("id")]
	n.mu.Unlock()

	if !ok {
		return n.errorResponse(c, bigchain.ErrTransactionNotFound)
	}

	return c.JSON(bigchain.StatusOut{Status: status})
}

func (n *MockNode) errorResponse(c *fiber.Ctx, err error) error {
	statusCode := http.StatusBadRequest

	reportedErr := err
	for _, match := range bigchain.AllErrors {
		if errors.Is(err, match) {
			reportedErr = match
			break
		}
	}

	if errors.Is(err, bigchain.ErrTransactionNotFound) {
		statusCode = http.StatusNotFound
	}

	return c.Status(statusCode).JSON(map[string]any{
		"error":   reportedErr.Error(),
		"details": err.Error(),
	})
}
