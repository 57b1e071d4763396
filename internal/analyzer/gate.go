package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/cooldown"
	"cryptoscan/pkg/model"
)

// Rejection reasons
const (
	ReasonQuality  = "quality"
	ReasonCooldown = "cooldown"
)

// Decision is the admission outcome for one alert
type Decision struct {
	Alert    model.Alert
	Admitted bool
	Reason   string // empty when admitted
}

// Gate admits alerts for dispatch: quality at or above the minimum and no
// dispatch of the same symbol and signal type within the cooldown window
type Gate struct {
	store      cooldown.Store
	minQuality int
	cooldown   time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

// NewGate creates an admission gate
func NewGate(store cooldown.Store, minQuality int, window time.Duration, logger zerolog.Logger) *Gate {
	return &Gate{
		store:      store,
		minQuality: minQuality,
		cooldown:   window,
		now:        time.Now,
		logger:     logger.With().Str("component", "gate").Logger(),
	}
}

// WithClock replaces the time source
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Admit decides whether one alert may be dispatched now. A failing store
// lookup is logged and treated as "never sent".
func (g *Gate) Admit(ctx context.Context, a model.Alert) Decision {
	sig := a.Signal.Clamped()
	if sig.Quality < g.minQuality {
		return Decision{Alert: a, Reason: fmt.Sprintf("%s %d < %d", ReasonQuality, sig.Quality, g.minQuality)}
	}

	key := sig.CooldownKey()
	last, ok, err := g.store.LastSent(ctx, key)
	if err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("cooldown lookup failed")
		return Decision{Alert: a, Admitted: true}
	}
	if ok {
		if elapsed := g.now().Sub(last); elapsed < g.cooldown {
			return Decision{Alert: a, Reason: fmt.Sprintf("%s %s left", ReasonCooldown, (g.cooldown - elapsed).Round(time.Second))}
		}
	}
	return Decision{Alert: a, Admitted: true}
}

// Filter returns the admitted alerts in input order and every decision
func (g *Gate) Filter(ctx context.Context, alerts []model.Alert) ([]model.Alert, []Decision) {
	var admitted []model.Alert
	decisions := make([]Decision, 0, len(alerts))
	for _, a := range alerts {
		d := g.Admit(ctx, a)
		decisions = append(decisions, d)
		if d.Admitted {
			admitted = append(admitted, a)
			continue
		}
		g.logger.Info().
			Str("symbol", a.Symbol()).
			Str("type", a.Signal.Type()).
			Str("reason", d.Reason).
			Msg("alert held back")
	}
	return admitted, decisions
}

// Record marks the alert as dispatched now
func (g *Gate) Record(ctx context.Context, a model.Alert) error {
	return g.store.MarkSent(ctx, a.Signal.CooldownKey(), g.now())
}
