package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is one audit notification: who did what, from where.
type Event struct {
	Username string
	Action   string
	Origin   string
}

// Recorder delivers events to a webhook sink without ever blocking the
// request path. Record enqueues and returns; a single background worker
// drains the queue. Delivery failures are swallowed and events are dropped
// when the queue is full — audit completeness is best-effort.
type Recorder struct {
	webhookURL string
	queue      chan Event
	client     *http.Client
	logger     *logrus.Logger
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

func NewRecorder(webhookURL string, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}

	r := &Recorder{
		webhookURL: webhookURL,
		queue:      make(chan Event, queueSize),
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logrus.StandardLogger(),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record enqueues an event and returns immediately.
func (r *Recorder) Record(username, action, origin string) {
	select {
	case r.queue <- Event{Username: username, Action: action, Origin: origin}:
	default:
		r.logger.WithField("username", username).Debug("Activity queue full, dropping event")
	}
}

// Close stops the worker after delivering whatever is already queued.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for event := range r.queue {
		r.deliver(event)
	}
}

func (r *Recorder) deliver(event Event) {
	if r.webhookURL == "" {
		return
	}

	message := fmt.Sprintf("%s has %s. IP: %s", event.Username, event.Action, event.Origin)
	body, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		r.logger.WithError(err).Debug("Failed to encode activity event")
		return
	}

	resp, err := r.client.Post(r.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		r.logger.WithError(err).Debug("Failed to deliver activity event")
		return
	}
	resp.Body.Close()
}
