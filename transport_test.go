package bigchain

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// deadNodeURL reserves a local port and releases it, so connecting fails.
func deadNodeURL(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	url := "http://" + listener.Addr().String()
	_ = listener.Close()
	return url
}

func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, hits
}

func TestTransport_ReadFailsOverToNextNode(t *testing.T) {
	live, hits := countingServer(t, http.StatusOK, `{"ok":true}`)

	transport, err := NewTransport(&TransportOptions{
		Nodes: []string{deadNodeURL(t), live.URL},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	out, err := transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/abc", nil, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	assert.Equal(t, `{"ok":true}`, string(out))
	assert.Equal(t, int64(1), hits.Load())
}

func TestTransport_ReadAttemptCeiling(t *testing.T) {
	third := deadNodeURL(t)
	transport, err := NewTransport(&TransportOptions{
		Nodes:        []string{deadNodeURL(t), deadNodeURL(t), third},
		ReadAttempts: 2,
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	_, err = transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/abc", nil, nil)

	var nodeErr *NodeError
	assert.ErrorAs(t, err, &nodeErr, "last node error surfaces after the ceiling")

	// Two attempts consumed two cursor positions, the untried node is next.
	assert.Equal(t, third, transport.Pool().Next().URL)
}

func TestTransport_MutatingNeverRetriesAcrossNodes(t *testing.T) {
	live, hits := countingServer(t, http.StatusAccepted, `{}`)

	transport, err := NewTransport(&TransportOptions{
		Nodes: []string{deadNodeURL(t), live.URL},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	_, err = transport.ForwardRequest(context.Background(), http.MethodPost, "/transactions/", []byte(`{}`), nil)

	var nodeErr *NodeError
	assert.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, int64(0), hits.Load(), "second node must never see the mutating request")
}

func TestTransport_RemoteErrorNoRetry(t *testing.T) {
	rejecting, rejectingHits := countingServer(t, http.StatusBadRequest, `{"error":"invalid transaction","details":"bad signature"}`)
	live, liveHits := countingServer(t, http.StatusOK, `{}`)

	transport, err := NewTransport(&TransportOptions{
		Nodes: []string{rejecting.URL, live.URL},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	_, err = transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/abc", nil, nil)

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %+v", err)
	}
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, "invalid transaction", remoteErr.Message)
	assert.Equal(t, "bad signature", remoteErr.Details)
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	assert.Equal(t, int64(1), rejectingHits.Load())
	assert.Equal(t, int64(0), liveHits.Load(), "structured rejections are not failed over")
}

func TestTransport_NotFoundMapsToSentinel(t *testing.T) {
	server, _ := countingServer(t, http.StatusNotFound, `{"error":"transaction not found"}`)

	transport, err := NewTransport(&TransportOptions{Nodes: []string{server.URL}})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	_, err = transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/missing", nil, nil)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	var remoteErr *RemoteError
	assert.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
}

func TestTransport_BodyPassthrough(t *testing.T) {
	body := `{"a":[1,2,{"b":"c"}],"unknown":"field"}`
	server, _ := countingServer(t, http.StatusOK, body)

	transport, err := NewTransport(&TransportOptions{Nodes: []string{server.URL}})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	out, err := transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/abc", nil, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, body, string(out))
}

func TestTransport_QueryString(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	transport, err := NewTransport(&TransportOptions{Nodes: []string{server.URL}})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	query := url.Values{}
	query.Set("limit", "1")

	_, err = transport.ForwardRequest(context.Background(), http.MethodGet, "/transactions/abc", nil, query)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, "limit=1", gotQuery)
}

func TestTransport_ContextCancellation(t *testing.T) {
	second := deadNodeURL(t)
	transport, err := NewTransport(&TransportOptions{
		Nodes: []string{deadNodeURL(t), second},
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = transport.ForwardRequest(ctx, http.MethodGet, "/transactions/abc", nil, nil)
	assert.Error(t, err)

	// A cancelled context must not burn a second failover attempt: exactly
	// one cursor position was consumed.
	assert.Equal(t, second, transport.Pool().Next().URL)
}
