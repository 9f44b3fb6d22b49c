// Package netmon tracks connectivity to the report server and emits
// edge-triggered events when the link comes back.
package netmon

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Monitor struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      *logrus.Entry

	mu     sync.Mutex
	online bool

	events chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a monitor that probes url every interval. The monitor starts
// offline; the first successful probe emits the online edge.
func New(url string, interval time.Duration, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Monitor{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		log:      logger.WithField("component", "netmon"),
		events:   make(chan struct{}, 1),
	}
}

func (m *Monitor) Start() {
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.run()
}

// Stop halts the probe loop. A no-op when the monitor was never started.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	<-m.doneCh
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Events delivers one value per offline-to-online transition. The channel
// holds a single pending event; a consumer that is mid-drain misses nothing
// because the queue is re-checked on the next trigger anyway.
func (m *Monitor) Events() <-chan struct{} {
	return m.events
}

// SetOnline feeds an externally observed connectivity state, for platforms
// that push link changes and for tests.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	m.mu.Unlock()

	if online && !wasOnline {
		m.emit()
	}
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	m.probe()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.probe()
		}
	}
}

func (m *Monitor) probe() {
	req, err := http.NewRequest(http.MethodHead, m.url, nil)
	if err != nil {
		m.SetOnline(false)
		return
	}
	resp, err := m.client.Do(req)
	if err != nil {
		if m.Online() {
			m.log.WithError(err).Info("connection lost")
		}
		m.SetOnline(false)
		return
	}
	resp.Body.Close()

	ok := resp.StatusCode < http.StatusInternalServerError
	if ok && !m.Online() {
		m.log.Info("connection restored")
	}
	m.SetOnline(ok)
}

func (m *Monitor) emit() {
	select {
	case m.events <- struct{}{}:
	default:
	}
}
