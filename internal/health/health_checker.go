package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JosineyJr/switch_router/internal/metrics"
	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/rs/zerolog"
)

type Prober interface {
	Probe(ctx context.Context, endpointURL, path string) error
}

type ProbeFunc func(ctx context.Context, endpointURL, path string) error

func (f ProbeFunc) Probe(ctx context.Context, endpointURL, path string) error {
	return f(ctx, endpointURL, path)
}

type probeResult struct {
	at  time.Time
	err error
}

type switchState struct {
	cfg     structs.Switch
	healthy atomic.Bool
	last    atomic.Pointer[probeResult]
}

// HealthMonitor owns the fixed switch registry. Only probe results write the
// healthy flags; every read sees the last completed write per switch.
type HealthMonitor struct {
	switches []*switchState
	prober   Prober
	timeout  time.Duration
	recorder metrics.Recorder
	log      zerolog.Logger
}

func NewHealthMonitor(
	switches []structs.Switch,
	p Prober,
	t time.Duration,
	r metrics.Recorder,
	l zerolog.Logger,
) *HealthMonitor {
	h := HealthMonitor{
		switches: make([]*switchState, 0, len(switches)),
		prober:   p,
		timeout:  t,
		recorder: r,
		log:      l,
	}

	for _, sw := range switches {
		s := &switchState{cfg: sw}
		s.healthy.Store(true)
		h.switches = append(h.switches, s)
	}

	return &h
}

// RunCycle probes every switch concurrently and returns once all probes have
// settled or timed out.
func (h *HealthMonitor) RunCycle(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range h.switches {
		wg.Add(1)
		go func(s *switchState) {
			defer wg.Done()
			h.probe(ctx, s)
		}(s)
	}
	wg.Wait()

	h.log.Info().
		Int("healthy", len(h.HealthySwitches())).
		Int("total", len(h.switches)).
		Msg("health check completed")
}

// Listen runs a cycle every interval until ctx is done.
func (h *HealthMonitor) Listen(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.log.Warn().Str("message", "finishing health monitor").Send()
				return
			case <-ticker.C:
				h.RunCycle(ctx)
			}
		}
	}()
}

func (h *HealthMonitor) probe(ctx context.Context, s *switchState) {
	ctxProbe, cancelProbe := context.WithTimeout(ctx, h.timeout)
	defer cancelProbe()

	start := time.Now()
	probeErr := make(chan error, 1)
	go func() {
		probeErr <- h.prober.Probe(ctxProbe, s.cfg.EndpointURL, s.cfg.HealthCheckPath)
	}()

	var err error
	select {
	case <-ctxProbe.Done():
		err = ctxProbe.Err()
	case err = <-probeErr:
	}

	// a stopped monitor is not evidence against the switch
	if ctx.Err() != nil {
		return
	}

	h.setHealth(s, err)
	h.recorder.RecordProbe(s.cfg.EndpointURL, err == nil, time.Since(start))
}

func (h *HealthMonitor) setHealth(s *switchState, err error) {
	healthy := err == nil
	s.last.Store(&probeResult{at: time.Now().UTC(), err: err})

	if s.healthy.Swap(healthy) == healthy {
		if err != nil {
			h.log.Debug().Err(err).Str("switch", s.cfg.EndpointURL).Msg("switch still unhealthy")
		}
		return
	}

	if healthy {
		h.log.Warn().Str("switch", s.cfg.EndpointURL).Str("message", "switch is healthy, resuming traffic").Send()
	} else {
		h.log.Warn().Err(err).Str("switch", s.cfg.EndpointURL).Str("message", "switch is ill, removing from rotation").Send()
	}
}

// HealthySwitches returns the healthy switches in configured order.
func (h *HealthMonitor) HealthySwitches() []structs.Switch {
	healthy := make([]structs.Switch, 0, len(h.switches))
	for _, s := range h.switches {
		if s.healthy.Load() {
			healthy = append(healthy, s.cfg)
		}
	}
	return healthy
}

func (h *HealthMonitor) Statuses() []structs.SwitchStatus {
	statuses := make([]structs.SwitchStatus, 0, len(h.switches))
	for _, s := range h.switches {
		st := structs.SwitchStatus{Switch: s.cfg, Healthy: s.healthy.Load()}
		if last := s.last.Load(); last != nil {
			st.LastCheckedAt = last.at
			if last.err != nil {
				st.LastError = last.err.Error()
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}
