package analyzer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/signal"
	"cryptoscan/pkg/model"
)

// Alternative list bounds
const (
	MaxAlternatives        = 3
	MaxPatternAlternatives = 2
	maxTrendQuality        = 80
)

// Analysis is the outcome for one symbol/timeframe
type Analysis struct {
	Frame   *indicator.Frame
	Signals []model.Signal // every candidate, clamped, before aggregation
	Alert   *model.Alert   // nil when nothing was detected
}

// Analyzer runs the indicator engine and every signal module over a series
// and aggregates the candidates into one Alert
type Analyzer struct {
	engine    *indicator.Engine
	modules   []signal.Module
	extractor *levels.Extractor
	logger    zerolog.Logger
}

// New creates an analyzer
func New(engine *indicator.Engine, modules []signal.Module, extractor *levels.Extractor, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		engine:    engine,
		modules:   modules,
		extractor: extractor,
		logger:    logger.With().Str("component", "analyzer").Logger(),
	}
}

// Modules returns the modules in evaluation order
func (a *Analyzer) Modules() []signal.Module { return a.modules }

// Analyze never fails: indicator and module failures only shrink the result
func (a *Analyzer) Analyze(s model.Series) *Analysis {
	f := a.engine.Compute(s)
	log := a.logger.With().Str("symbol", s.Symbol).Str("timeframe", s.Timeframe).Logger()

	var all []model.Signal
	for _, m := range a.modules {
		sigs, err := signal.Check(m, f)
		if err != nil {
			log.Error().Err(err).Str("module", m.Name()).Msg("signal module failed")
			continue
		}
		if len(sigs) > 0 {
			log.Debug().Str("module", m.Name()).Int("signals", len(sigs)).Msg("signals found")
		}
		all = append(all, sigs...)
	}
	for i := range all {
		all[i] = all[i].Clamped()
	}

	res := &Analysis{Frame: f, Signals: all}
	if len(all) == 0 {
		log.Debug().Msg("no signals")
		return res
	}

	lv := a.extractor.Find(f.Candles)
	res.Alert = Aggregate(all, lv, signal.TrendState(f))
	if res.Alert != nil {
		log.Info().
			Int("detected", len(all)).
			Str("best", res.Alert.Signal.Type()).
			Int("quality", res.Alert.Signal.Quality).
			Msg("analysis complete")
	}
	return res
}

// Aggregate picks the best signal and builds its composite alert:
// a fallback from the best pattern when only patterns fired, the ADX
// descriptor, up to 3 other regular signals of a different type and up to 2
// patterns as alternatives, plus the level snapshot.
func Aggregate(signals []model.Signal, lv model.Levels, trend *model.ADXTrend) *model.Alert {
	var regular, patterns []model.Signal
	for _, s := range signals {
		s = s.Clamped()
		if s.IsPattern() {
			patterns = append(patterns, s)
		} else {
			regular = append(regular, s)
		}
	}
	SortByQuality(patterns)

	if len(regular) == 0 {
		if len(patterns) == 0 {
			return nil
		}
		regular = append(regular, Fallback(patterns[0]))
	}
	SortByQuality(regular)
	best := regular[0]

	var others []model.Signal
	for _, s := range regular[1:] {
		if s.Symbol == best.Symbol && s.Timeframe == best.Timeframe && s.Type() != best.Type() {
			others = append(others, s)
		}
	}
	if len(others) > MaxAlternatives {
		others = others[:MaxAlternatives]
	}

	alts := make([]model.Signal, 0, 1+MaxAlternatives+MaxPatternAlternatives)
	if trend != nil {
		alts = append(alts, TrendSignal(best, *trend))
	}
	alts = append(alts, others...)
	added := 0
	for _, p := range patterns {
		if added == MaxPatternAlternatives {
			break
		}
		if p.Symbol != best.Symbol || p.Timeframe != best.Timeframe {
			continue
		}
		alts = append(alts, p)
		added++
	}

	return &model.Alert{
		Signal:       best,
		Alternatives: alts,
		Levels:       copyLevels(lv),
		Trend:        trend,
	}
}

// SortByQuality orders signals by quality, highest first; ties keep their order
func SortByQuality(sigs []model.Signal) {
	sort.SliceStable(sigs, func(i, j int) bool { return sigs[i].Quality > sigs[j].Quality })
}

// Fallback turns the best pattern into a generic technical alert
func Fallback(p model.Signal) model.Signal {
	out := p
	out.ID = uuid.NewString()
	out.Kind = model.Kind{Category: model.CategoryTechnicalAlert, Direction: p.Kind.Direction}
	out.Description = "Technical analysis alert: " + p.Description
	return out
}

// TrendSignal is the advisory ADX descriptor attached to an alert
func TrendSignal(best model.Signal, t model.ADXTrend) model.Signal {
	q := int(t.Value)
	if q > maxTrendQuality {
		q = maxTrendQuality
	}
	return model.Signal{
		ID:        uuid.NewString(),
		Symbol:    best.Symbol,
		Timeframe: best.Timeframe,
		Module:    "trend",
		Kind: model.Kind{
			Category:  model.CategoryTrendContext,
			Direction: t.Direction,
			Strength:  t.Strength,
			Variant:   strconv.FormatFloat(t.Value, 'f', 1, 64),
		},
		Time:    best.Time,
		Quality: model.ClampQuality(q),
		Description: fmt.Sprintf("ADX at %.1f shows a %s %s trend.",
			t.Value, strings.ToLower(t.Strength.Title()), t.Direction),
	}
}

func copyLevels(lv model.Levels) model.Levels {
	return model.Levels{
		Support:    append([]float64{}, lv.Support...),
		Resistance: append([]float64{}, lv.Resistance...),
	}
}

// BestPerSymbol keeps the highest-quality alert for each symbol across
// timeframes; the result is ordered by quality
func BestPerSymbol(alerts []model.Alert) []model.Alert {
	sorted := append([]model.Alert(nil), alerts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Quality() > sorted[j].Quality() })

	seen := make(map[string]bool)
	var out []model.Alert
	for _, a := range sorted {
		if seen[a.Symbol()] {
			continue
		}
		seen[a.Symbol()] = true
		out = append(out, a)
	}
	return out
}
