package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"cryptoscan/pkg/model"
)

const (
	maxOtherSignals   = 3
	maxPatternSignals = 2
	maxLevels         = 3
)

const disclaimer = "⚠️ This alert was generated automatically by a signal bot. Do your own research and manage your risk."

// FormatAnalysis builds the analysis-channel message: headline, quality,
// description, trend line, other detected signals and nearby levels
func FormatAnalysis(a model.Alert) string {
	s := a.Signal
	var b strings.Builder

	b.WriteString(fmt.Sprintf("⚠️ <b>[%s] %s (%s)</b>\n", s.Symbol, html.EscapeString(s.Type()), s.Timeframe))
	if s.Quality > 0 {
		b.WriteString(fmt.Sprintf("⭐️ Quality: %d/100\n", s.Quality))
	}
	if s.Description != "" && s.Kind.Category != model.CategoryADX {
		b.WriteString(fmt.Sprintf("\n<b>📝 %s</b>\n", html.EscapeString(s.Description)))
	}

	trend, others, patterns := groupAlternatives(a.Alternatives)
	if len(trend) > 0 {
		b.WriteString("\n🔍 <b>Trend:</b>\n")
		b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(trend[0].Type())))
	}
	if len(others) > 0 || len(patterns) > 0 {
		b.WriteString("\n🔍 <b>Other Detected Signals:</b>\n")
		for _, o := range others[:min(len(others), maxOtherSignals)] {
			b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(o.Type())))
		}
		for _, p := range patterns[:min(len(patterns), maxPatternSignals)] {
			b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(p.Type())))
		}
	}

	if len(a.Levels.Support) > 0 {
		b.WriteString(fmt.Sprintf("\n🟢 <b>Support:</b> %s\n", joinLevels(a.Levels.Support)))
	}
	if len(a.Levels.Resistance) > 0 {
		if len(a.Levels.Support) == 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("🔴 <b>Resistance:</b> %s\n", joinLevels(a.Levels.Resistance)))
	}

	b.WriteString("\n" + disclaimer)
	return b.String()
}

// FormatTrade builds the trade-channel message with entry, stop, target and
// risk/reward
func FormatTrade(a model.Alert) string {
	s := a.Signal
	var b strings.Builder

	b.WriteString(fmt.Sprintf("⚠️ %s - %s (%s)\n", s.Symbol, html.EscapeString(s.Type()), s.Timeframe))
	if s.Entry > 0 {
		b.WriteString(fmt.Sprintf("🎯 Entry: %.8g\n", s.Entry))
	}
	if s.StopLoss > 0 {
		b.WriteString(fmt.Sprintf("🛑 Stop Loss: %.8g\n", s.StopLoss))
	}
	if s.TakeProfit > 0 {
		b.WriteString(fmt.Sprintf("💰 Take Profit: %.8g\n", s.TakeProfit))
	}
	if rr := s.RiskReward(); rr > 0 {
		b.WriteString(fmt.Sprintf("📊 Risk/Reward: 1:%.2f\n", rr))
	}
	if s.Quality > 0 {
		b.WriteString(fmt.Sprintf("⭐️ Quality: %d/100\n", s.Quality))
	}
	return b.String()
}

// groupAlternatives splits alternatives into the trend descriptor, ranked
// regular signals (fibonacci and divergence first, then S/R, then the rest)
// and patterns, each by quality
func groupAlternatives(alts []model.Signal) (trend, others, patterns []model.Signal) {
	for _, alt := range alts {
		switch {
		case alt.Kind.Category == model.CategoryTrendContext || alt.Kind.Category == model.CategoryADX:
			trend = append(trend, alt)
		case alt.IsPattern():
			patterns = append(patterns, alt)
		default:
			others = append(others, alt)
		}
	}
	byQuality := func(sigs []model.Signal) {
		sort.SliceStable(sigs, func(i, j int) bool { return sigs[i].Quality > sigs[j].Quality })
	}
	byQuality(trend)
	byQuality(patterns)
	sort.SliceStable(others, func(i, j int) bool {
		ri, rj := rank(others[i].Kind.Category), rank(others[j].Kind.Category)
		if ri != rj {
			return ri < rj
		}
		return others[i].Quality > others[j].Quality
	})
	return trend, others, patterns
}

func rank(c model.Category) int {
	switch c {
	case model.CategoryFibonacci, model.CategoryRSIDivergence:
		return 0
	case model.CategorySRProximity, model.CategoryHorizontalSR:
		return 1
	default:
		return 2
	}
}

func joinLevels(levels []float64) string {
	parts := make([]string, 0, maxLevels)
	for _, l := range levels[:min(len(levels), maxLevels)] {
		parts = append(parts, fmt.Sprintf("%.8g", l))
	}
	return strings.Join(parts, " • ")
}
