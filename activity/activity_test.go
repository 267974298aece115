package activity

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type webhookSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *webhookSink) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.messages = append(s.messages, payload["content"])
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *webhookSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestRecordDelivers(t *testing.T) {
	sink := &webhookSink{}
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	recorder := NewRecorder(server.URL, 8)
	recorder.Record("alice", "logged in", "203.0.113.7")
	recorder.Close()

	messages := sink.all()
	if len(messages) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(messages))
	}
	want := "alice has logged in. IP: 203.0.113.7"
	if messages[0] != want {
		t.Errorf("message = %q, want %q", messages[0], want)
	}
}

func TestRecordNeverBlocks(t *testing.T) {
	// No worker ever drains this sink; the queue fills and Record must
	// still return promptly.
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	recorder := NewRecorder(server.URL, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			recorder.Record("bob", "did something", "198.51.100.1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked")
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	sink := &webhookSink{}
	server := httptest.NewServer(sink.handler())
	defer server.Close()

	recorder := NewRecorder(server.URL, 16)
	for i := 0; i < 5; i++ {
		recorder.Record("carol", "ran a tool", "192.0.2.1")
	}
	recorder.Close()

	if got := len(sink.all()); got != 5 {
		t.Errorf("delivered %d messages, want 5", got)
	}
}

func TestEmptyWebhookURLIsNoop(t *testing.T) {
	recorder := NewRecorder("", 4)
	recorder.Record("dave", "logged in", "192.0.2.2")
	recorder.Close()
}
