package netstatus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"focustrack/internal/platform/logger"
)

// Prober checks whether the remote API is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// Status is the read/override surface consumed by the orchestrator and the
// offline queue.
type Status interface {
	Online() bool
	SetOnline(online bool)
}

// Monitor polls a Prober and fans out online/offline transitions. It is the
// process-local stand-in for the browser's online and offline events.
type Monitor struct {
	prober   Prober
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	online  bool
	subs    map[string]func(online bool)
	stop    chan struct{}
	running bool
}

func NewMonitor(prober Prober, log *logger.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		log:      log,
		interval: interval,
		online:   true,
		subs:     map[string]func(bool){},
	}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a transition and notifies subscribers on change. Callers
// may force it directly (e.g. a request-level transport failure is stronger
// evidence than the last poll).
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make(map[string]func(bool), len(m.subs))
	for id, fn := range m.subs {
		subs[id] = fn
	}
	m.mu.Unlock()

	if online {
		m.log.Info("connectivity restored")
	} else {
		m.log.Warn("connectivity lost")
	}
	for id, fn := range subs {
		m.dispatch(id, fn, online)
	}
}

func (m *Monitor) OnChange(id string, fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[id] = fn
}

func (m *Monitor) RemoveOnChange(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	go m.run(stop)
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()
}

func (m *Monitor) run(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			err := m.prober.Probe(ctx)
			cancel()
			m.SetOnline(err == nil)
		}
	}
}

func (m *Monitor) dispatch(id string, fn func(bool), online bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("netstatus subscriber panicked", logger.F("id", id), logger.F("panic", fmt.Sprint(r)))
		}
	}()
	fn(online)
}

// HTTPProber reports reachability of the remote API health endpoint.
type HTTPProber struct {
	client  *http.Client
	baseURL string
}

func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe health: status %d", resp.StatusCode)
	}
	return nil
}
