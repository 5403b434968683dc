package telemetry

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

// ErrTimerBusy is returned by Timer.Arm when the timer is already armed
var ErrTimerBusy = errors.New("timer is already armed")

// Timer is a periodic timer serviced by the telemetry Loop
type Timer interface {
	// Arm schedules the timer to expire every period
	Arm(period time.Duration) error
	// Service returns true if the timer expired since the previous call, it never blocks
	Service() bool
	// Stop disarms the timer
	Stop()
}

// NewClockTimer creates a new ClockTimer
func NewClockTimer(clk clock.WithTicker) *ClockTimer {
	return &ClockTimer{clock: clk}
}

// ClockTimer is a Timer backed by a clock.Ticker
type ClockTimer struct {
	mu     sync.Mutex
	clock  clock.WithTicker
	ticker clock.Ticker
}

// Arm implements Timer interface
func (t *ClockTimer) Arm(period time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if period <= 0 {
		return errors.Errorf("invalid timer period %s", period)
	}
	if t.ticker != nil {
		return ErrTimerBusy
	}
	t.ticker = t.clock.NewTicker(period)
	return nil
}

// Service implements Timer interface
func (t *ClockTimer) Service() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker == nil {
		return false
	}
	select {
	case <-t.ticker.C():
		return true
	default:
		return false
	}
}

// Stop implements Timer interface
func (t *ClockTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
