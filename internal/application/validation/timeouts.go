package validation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

var ErrTimeoutOutOfBounds = errors.New("timeout outside allowed window")

const (
	DefaultNewTimeout        = 15 * time.Minute
	DefaultProcessingTimeout = 30 * time.Minute
	DefaultAuthorizedTimeout = 24 * time.Hour
	FallbackTimeout          = 15 * time.Minute
)

// Timeouts holds the per-status expiration windows, with optional per-team
// overrides. Every configured value must fall inside [min, max]; violations
// are rejected at configuration time, never at validation time.
type Timeouts struct {
	mu       sync.RWMutex
	defaults map[payment.Status]time.Duration
	teams    map[string]map[payment.Status]time.Duration
	min      time.Duration
	max      time.Duration
}

func NewTimeouts() *Timeouts {
	return NewTimeoutsWithBounds(time.Minute, 48*time.Hour)
}

func NewTimeoutsWithBounds(min, max time.Duration) *Timeouts {
	return &Timeouts{
		defaults: map[payment.Status]time.Duration{
			payment.StatusNew:        DefaultNewTimeout,
			payment.StatusProcessing: DefaultProcessingTimeout,
			payment.StatusAuthorized: DefaultAuthorizedTimeout,
		},
		teams: make(map[string]map[payment.Status]time.Duration),
		min:   min,
		max:   max,
	}
}

// For resolves the timeout for a team/status pair: team override, then
// status default, then the fallback.
func (t *Timeouts) For(teamID string, status payment.Status) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if overrides, ok := t.teams[teamID]; ok {
		if d, ok := overrides[status]; ok {
			return d
		}
	}
	if d, ok := t.defaults[status]; ok {
		return d
	}
	return FallbackTimeout
}

func (t *Timeouts) SetDefault(status payment.Status, d time.Duration) error {
	if err := t.checkBounds(d); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.defaults[status] = d
	return nil
}

func (t *Timeouts) SetTeamTimeout(teamID string, status payment.Status, d time.Duration) error {
	if err := t.checkBounds(d); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	overrides, ok := t.teams[teamID]
	if !ok {
		overrides = make(map[payment.Status]time.Duration)
		t.teams[teamID] = overrides
	}
	overrides[status] = d
	return nil
}

func (t *Timeouts) ClearTeam(teamID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.teams, teamID)
}

func (t *Timeouts) checkBounds(d time.Duration) error {
	if d < t.min || d > t.max {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrTimeoutOutOfBounds, d, t.min, t.max)
	}
	return nil
}
