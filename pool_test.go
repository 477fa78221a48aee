package bigchain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_Defaults(t *testing.T) {
	pool, err := NewPool()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	assert.Equal(t, []Node{{URL: DefaultNode}}, pool.Nodes())
}

func TestPool_NormalisesURLs(t *testing.T) {
	pool, err := NewPool("http://node-a:9984/api/v1/", " http://node-b:9984/api/v1 ")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	assert.Equal(t, "http://node-a:9984/api/v1", pool.Nodes()[0].URL)
	assert.Equal(t, "http://node-b:9984/api/v1", pool.Nodes()[1].URL)

	_, err = NewPool("")
	assert.Error(t, err)
}

func TestPool_NextCyclic(t *testing.T) {
	pool, err := NewPool("http://a", "http://b", "http://c")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	expected := []string{
		"http://a", "http://b", "http://c",
		"http://a", "http://b", "http://c",
		"http://a",
	}
	for i, url := range expected {
		assert.Equal(t, url, pool.Next().URL, "selection %d", i)
	}
}

func TestPool_NextDistribution(t *testing.T) {
	pool, err := NewPool("http://a", "http://b", "http://c")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	counts := map[string]int{}
	for i := 0; i < 300; i++ {
		counts[pool.Next().URL]++
	}

	assert.Equal(t, map[string]int{"http://a": 100, "http://b": 100, "http://c": 100}, counts)
}

func TestPool_NextConcurrent(t *testing.T) {
	pool, err := NewPool("http://a", "http://b", "http://c")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	const workers = 30
	const callsPerWorker = 50

	var mu sync.Mutex
	counts := map[string]int{}

	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := map[string]int{}
			for i := 0; i < callsPerWorker; i++ {
				local[pool.Next().URL]++
			}
			mu.Lock()
			for url, n := range local {
				counts[url] += n
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 1500 selections over 3 nodes: the multiset must be identical to the
	// sequential one, no duplicated or skipped cursor positions.
	assert.Equal(t, map[string]int{"http://a": 500, "http://b": 500, "http://c": 500}, counts)
}

func TestPool_NodesReturnsCopy(t *testing.T) {
	pool, err := NewPool("http://a", "http://b")
	if err != nil {
		t.Fatalf("%+v", err)
	}

	nodes := pool.Nodes()
	nodes[0].URL = "http://mutated"

	assert.Equal(t, "http://a", pool.Nodes()[0].URL)

	pool.Next()
	assert.Equal(t, "http://a", pool.Nodes()[0].URL, "accessor must not expose cursor state")
}
