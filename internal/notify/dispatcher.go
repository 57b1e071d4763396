package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/metrics"
	"cryptoscan/internal/ratelimit"
	"cryptoscan/pkg/model"
)

// Channel labels
const (
	ChannelAnalysis = "analysis"
	ChannelTrade    = "trade"
)

// Sender delivers one message to a chat
type Sender interface {
	SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error
}

// Recorder marks an alert as delivered
type Recorder interface {
	Record(ctx context.Context, a model.Alert) error
}

// DispatchConfig holds the delivery settings
type DispatchConfig struct {
	AnalysisChatID string
	TradeChatID    string // optional
	SendDelay      time.Duration
	MaxRetries     int
}

// Dispatcher sends admitted alerts to the analysis channel and, when
// configured, the trade channel
type Dispatcher struct {
	sender   Sender
	recorder Recorder
	cfg      DispatchConfig
	spacing  *ratelimit.Limiter
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil.
func NewDispatcher(sender Sender, recorder Recorder, cfg DispatchConfig, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		recorder: recorder,
		cfg:      cfg,
		spacing:  ratelimit.NewLimiter("telegram", cfg.SendDelay),
		logger:   logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Send delivers one alert. It succeeds only when every configured channel
// accepted the message.
func (d *Dispatcher) Send(ctx context.Context, a model.Alert) bool {
	log := d.logger.With().Str("symbol", a.Symbol()).Str("type", a.Signal.Type()).Logger()

	ok := true
	if err := d.sender.SendWithRetry(ctx, d.cfg.AnalysisChatID, FormatAnalysis(a), d.cfg.MaxRetries); err != nil {
		log.Error().Err(err).Str("channel", ChannelAnalysis).Msg("delivery failed")
		metrics.SendFailures.WithLabelValues(ChannelAnalysis).Inc()
		ok = false
	} else {
		metrics.AlertsSent.WithLabelValues(ChannelAnalysis).Inc()
	}

	if d.cfg.TradeChatID != "" {
		if err := d.sender.SendWithRetry(ctx, d.cfg.TradeChatID, FormatTrade(a), d.cfg.MaxRetries); err != nil {
			log.Error().Err(err).Str("channel", ChannelTrade).Msg("delivery failed")
			metrics.SendFailures.WithLabelValues(ChannelTrade).Inc()
			ok = false
		} else {
			metrics.AlertsSent.WithLabelValues(ChannelTrade).Inc()
		}
	}
	return ok
}

// Dispatch sends alerts in order, waiting SendDelay between two sends, and
// records each successful delivery. Returns the number delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []model.Alert) (int, error) {
	sent := 0
	for _, a := range alerts {
		if err := d.spacing.Wait(ctx); err != nil {
			return sent, err
		}
		if !d.Send(ctx, a) {
			continue
		}
		sent++
		if d.recorder != nil {
			if err := d.recorder.Record(ctx, a); err != nil {
				d.logger.Error().Err(err).Str("symbol", a.Symbol()).Msg("cooldown record failed")
			}
		}
		d.logger.Info().
			Str("symbol", a.Symbol()).
			Str("type", a.Signal.Type()).
			Int("quality", a.Quality()).
			Msg("[OK] alert sent")
	}
	return sent, nil
}
