package httpclient

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestNewUsesExplicitProxy(t *testing.T) {
	c := New("http://proxy.example:8080", 3*time.Second)
	if c.Timeout != 3*time.Second {
		t.Fatalf("Timeout = %v, want 3s", c.Timeout)
	}

	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport is %T, want *http.Transport", c.Transport)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://translate.googleapis.com/", nil)
	proxy, err := tr.Proxy(req)
	if err != nil {
		t.Fatalf("Proxy() error: %v", err)
	}
	if proxy == nil || proxy.Host != "proxy.example:8080" {
		t.Fatalf("Proxy() = %v, want proxy.example:8080", proxy)
	}
}

func TestNewDefaultTimeout(t *testing.T) {
	if c := New("", 0); c.Timeout != DefaultTimeout {
		t.Fatalf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
}

func TestSharedIsCreatedOnce(t *testing.T) {
	var wg sync.WaitGroup
	clients := make([]*http.Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i] = Shared("", time.Duration(i+1)*time.Second)
		}(i)
	}
	wg.Wait()

	for i, c := range clients {
		if c == nil || c != clients[0] {
			t.Fatalf("client %d differs from the first shared client", i)
		}
	}
}
