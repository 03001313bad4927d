package serve

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func readUntil(t *testing.T, r *bufio.Reader, substr string, timeout time.Duration) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func connectSSE(t *testing.T, url string, timeout time.Duration) (*bufio.Reader, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	return bufio.NewReader(resp.Body), func() {
		_ = resp.Body.Close()
		cancel()
	}
}

func TestHubInitialConnectSendsCurrentHash(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	server := httptest.NewServer(hub)
	defer server.Close()

	reader, done := connectSSE(t, server.URL, 2*time.Second)
	defer done()
	if !readUntil(t, reader, "abc123", time.Second) {
		t.Fatalf("did not receive current hash on connect")
	}
}

func TestHubBroadcastReachesClient(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	reader, done := connectSSE(t, server.URL, 2*time.Second)
	defer done()
	if !readUntil(t, reader, "connected", time.Second) {
		t.Fatalf("no connect comment received")
	}

	hub.Broadcast("newhash")
	if !readUntil(t, reader, "newhash", time.Second) {
		t.Fatalf("did not observe broadcast hash in stream")
	}
}

func TestHubRepeatBroadcastSuppressed(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	// Bounded connection: the stream read below terminates at the deadline.
	reader, done := connectSSE(t, server.URL, 800*time.Millisecond)
	defer done()

	hub.Broadcast("hash1")
	if !readUntil(t, reader, "hash1", 500*time.Millisecond) {
		t.Fatalf("first broadcast not received")
	}

	hub.Broadcast("hash1")
	if readUntil(t, reader, "hash1", 500*time.Millisecond) {
		t.Fatalf("duplicate hash rebroadcast to client")
	}
	if hub.LastHash() != "hash1" {
		t.Fatalf("last hash = %q, want hash1", hub.LastHash())
	}
}

func TestHubEmptyHashIgnored(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	hub.Broadcast("")
	if hub.LastHash() != "" {
		t.Fatalf("empty broadcast recorded a hash")
	}
}

func TestHubClientCountCallback(t *testing.T) {
	var mu sync.Mutex
	var counts []int
	hub := NewHub(func(n int) {
		mu.Lock()
		counts = append(counts, n)
		mu.Unlock()
	})
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	_, done := connectSSE(t, server.URL, 2*time.Second)

	waitFor := func(want int) bool {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if hub.ClientCount() == want {
				return true
			}
			time.Sleep(5 * time.Millisecond)
		}
		return false
	}
	if !waitFor(1) {
		t.Fatalf("client never registered, count=%d", hub.ClientCount())
	}
	done()
	if !waitFor(0) {
		t.Fatalf("client never deregistered, count=%d", hub.ClientCount())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(counts) < 2 || counts[0] != 1 {
		t.Fatalf("gauge callback sequence = %v", counts)
	}
}

func TestHubShutdownRefusesNewClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Shutdown()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/livereload", nil)
	hub.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHubShutdownDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)

	server := httptest.NewServer(hub)
	defer server.Close()

	reader, done := connectSSE(t, server.URL, 2*time.Second)
	defer done()
	if !readUntil(t, reader, "connected", time.Second) {
		t.Fatalf("no connect comment received")
	}

	hub.Shutdown()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := reader.ReadString('\n'); err != nil {
			return // stream closed as expected
		}
	}
	t.Fatalf("stream still open after shutdown")
}
