package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cryptoscan/internal/cooldown"
	"cryptoscan/internal/indicator"
	"cryptoscan/internal/levels"
	"cryptoscan/internal/logging"
	"cryptoscan/internal/notify"
	"cryptoscan/internal/pattern"
	"cryptoscan/internal/provider"
	"cryptoscan/internal/scanner"
	"cryptoscan/internal/signal"
)

// Config represents the application configuration
type Config struct {
	Exchange   ExchangeConfig  `yaml:"exchange"`
	Telegram   TelegramConfig  `yaml:"telegram"`
	Scanner    ScannerConfig   `yaml:"scanner"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Signals    SignalConfig    `yaml:"signals"`
	Levels     LevelsConfig    `yaml:"levels"`
	Store      StoreConfig     `yaml:"store"`
	Web        WebConfig       `yaml:"web"`
	Log        logging.Config  `yaml:"log"`
}

// ExchangeConfig holds market data settings
type ExchangeConfig struct {
	APIKey         string        `yaml:"api_key"`
	APISecret      string        `yaml:"api_secret"`
	BaseURL        string        `yaml:"base_url"`        // empty means the public endpoint
	MirrorURLs     []string      `yaml:"mirror_urls"`     // tried in order when the primary is throttled or down
	RequestSpacing time.Duration `yaml:"request_spacing"` // minimum delay between two requests
	CSVDir         string        `yaml:"csv_dir"`         // offline candles; used when set
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// TelegramConfig holds alert delivery settings
type TelegramConfig struct {
	BotToken      string        `yaml:"bot_token"`
	ChatID        string        `yaml:"chat_id"`         // analysis channel
	SignalsChatID string        `yaml:"signals_chat_id"` // trade channel, optional
	SendDelay     time.Duration `yaml:"send_delay"`
	MaxRetries    int           `yaml:"max_retries"`
}

// ScannerConfig holds scan cycle settings
type ScannerConfig struct {
	Symbols    []string      `yaml:"symbols"`
	Universe   string        `yaml:"universe"`
	SymbolFile string        `yaml:"symbol_file"`
	Timeframes []string      `yaml:"timeframes"`
	KlineLimit int           `yaml:"kline_limit"`
	MinVolume  float64       `yaml:"min_volume"` // 24h quote volume
	Workers    int           `yaml:"workers"`
	Timeout    time.Duration `yaml:"timeout"`
	Schedule   string        `yaml:"schedule"` // cron spec for the run command
}

// IndicatorConfig holds indicator periods
type IndicatorConfig struct {
	RSIPeriod       int     `yaml:"rsi_period"`
	EMAShort        int     `yaml:"ema_short"`
	EMAMedium       int     `yaml:"ema_medium"`
	EMALong         int     `yaml:"ema_long"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BBPeriod        int     `yaml:"bb_period"`
	BBStdDev        float64 `yaml:"bb_std"`
	IchimokuTenkan  int     `yaml:"ichimoku_tenkan"`
	IchimokuKijun   int     `yaml:"ichimoku_kijun"`
	IchimokuSenkouB int     `yaml:"ichimoku_senkou_span_b"`
	PSARStart       float64 `yaml:"psar_start"`
	PSARIncrement   float64 `yaml:"psar_increment"`
	PSARMax         float64 `yaml:"psar_max"`
	ADXPeriod       int     `yaml:"adx_period"`
}

// SignalConfig holds module thresholds and admission rules
type SignalConfig struct {
	Modules          []string      `yaml:"modules"` // empty means all
	RSIOverbought    float64       `yaml:"rsi_overbought"`
	RSIOversold      float64       `yaml:"rsi_oversold"`
	VolatilitySymbol string        `yaml:"volatility_symbol"`
	ATRPeriod        int           `yaml:"atr_period"`
	ATRAverageBars   int           `yaml:"atr_average_bars"`
	ATRMultiplier    float64       `yaml:"atr_multiplier"`
	MinQuality       int           `yaml:"min_quality"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// LevelsConfig holds support/resistance extraction settings
type LevelsConfig struct {
	Window    int     `yaml:"window"`
	Threshold float64 `yaml:"threshold"`
	Lookback  int     `yaml:"lookback"`
}

// StoreConfig selects the last-sent store
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or file
	Path   string `yaml:"path"`
}

// WebConfig holds the status server settings
type WebConfig struct {
	Addr        string `yaml:"addr"`         // empty disables the server
	MetricsAddr string `yaml:"metrics_addr"` // standalone /metrics listener, used when addr is empty
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	p := indicator.DefaultParams()
	sc := signal.DefaultConfig()
	lv := levels.DefaultConfig()
	scan := scanner.DefaultConfig()
	return &Config{
		Exchange: ExchangeConfig{
			RequestSpacing: time.Second,
			CacheTTL:       time.Minute,
		},
		Telegram: TelegramConfig{
			SendDelay:  2 * time.Minute,
			MaxRetries: 3,
		},
		Scanner: ScannerConfig{
			Universe:   "default",
			Timeframes: scan.Timeframes,
			KlineLimit: scan.Limit,
			MinVolume:  scan.MinVolume,
			Workers:    scan.Workers,
			Timeout:    scan.Timeout,
			Schedule:   "@every 90m",
		},
		Indicators: IndicatorConfig{
			RSIPeriod:       p.RSIPeriod,
			EMAShort:        p.EMAShort,
			EMAMedium:       p.EMAMedium,
			EMALong:         p.EMALong,
			MACDFast:        p.MACDFast,
			MACDSlow:        p.MACDSlow,
			MACDSignal:      p.MACDSignal,
			BBPeriod:        p.BBPeriod,
			BBStdDev:        p.BBStdDev,
			IchimokuTenkan:  p.IchimokuTenkan,
			IchimokuKijun:   p.IchimokuKijun,
			IchimokuSenkouB: p.IchimokuSenkouB,
			PSARStart:       p.PSARStart,
			PSARIncrement:   p.PSARIncrement,
			PSARMax:         p.PSARMax,
			ADXPeriod:       p.ADXPeriod,
		},
		Signals: SignalConfig{
			RSIOverbought:    sc.RSIOverbought,
			RSIOversold:      sc.RSIOversold,
			VolatilitySymbol: sc.VolatilitySymbol,
			ATRPeriod:        sc.ATRPeriod,
			ATRAverageBars:   sc.ATRAverageBars,
			ATRMultiplier:    sc.ATRMultiplier,
			MinQuality:       50,
			Cooldown:         4 * time.Hour,
		},
		Levels: LevelsConfig{
			Window:    lv.Window,
			Threshold: lv.Threshold,
			Lookback:  lv.Lookback,
		},
		Store: StoreConfig{
			Driver: cooldown.DriverSQLite,
			Path:   "data/cryptoscan.db",
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads .env files (missing ones are ignored), then the YAML file
// (missing means defaults), then environment overrides
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Exchange.APIKey, "BINANCE_API_KEY")
	set(&c.Exchange.APISecret, "BINANCE_API_SECRET")
	set(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&c.Telegram.SignalsChatID, "TELEGRAM_SIGNALS_CHAT_ID")
	set(&c.Log.Level, "CRYPTOSCAN_LOG_LEVEL")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	ind := c.Indicators
	periods := map[string]int{
		"rsi_period":             ind.RSIPeriod,
		"ema_short":              ind.EMAShort,
		"ema_medium":             ind.EMAMedium,
		"ema_long":               ind.EMALong,
		"macd_fast":              ind.MACDFast,
		"macd_slow":              ind.MACDSlow,
		"macd_signal":            ind.MACDSignal,
		"bb_period":              ind.BBPeriod,
		"ichimoku_tenkan":        ind.IchimokuTenkan,
		"ichimoku_kijun":         ind.IchimokuKijun,
		"ichimoku_senkou_span_b": ind.IchimokuSenkouB,
		"adx_period":             ind.ADXPeriod,
		"atr_period":             c.Signals.ATRPeriod,
		"levels.window":          c.Levels.Window,
		"scanner.kline_limit":    c.Scanner.KlineLimit,
		"scanner.workers":        c.Scanner.Workers,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if ind.MACDFast >= ind.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be below macd_slow (%d)", ind.MACDFast, ind.MACDSlow)
	}
	if ind.BBStdDev <= 0 {
		return fmt.Errorf("bb_std must be positive")
	}
	if ind.PSARStart <= 0 || ind.PSARIncrement <= 0 || ind.PSARMax < ind.PSARStart {
		return fmt.Errorf("invalid psar settings: start %g increment %g max %g", ind.PSARStart, ind.PSARIncrement, ind.PSARMax)
	}
	if c.Signals.RSIOversold >= c.Signals.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%g) must be below rsi_overbought (%g)", c.Signals.RSIOversold, c.Signals.RSIOverbought)
	}
	if c.Signals.MinQuality < 0 || c.Signals.MinQuality > 100 {
		return fmt.Errorf("min_quality must be within [0,100], got %d", c.Signals.MinQuality)
	}
	if c.Signals.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	known := make(map[string]bool)
	for _, name := range signal.List() {
		known[name] = true
	}
	for _, name := range c.Signals.Modules {
		if !known[name] {
			return fmt.Errorf("unknown signal module: %s (available: %v)", name, signal.List())
		}
	}
	if len(c.Scanner.Timeframes) == 0 {
		return fmt.Errorf("at least one timeframe is required")
	}
	for _, tf := range c.Scanner.Timeframes {
		if !provider.ValidInterval(tf) {
			return fmt.Errorf("unknown timeframe %q", tf)
		}
	}
	if len(c.Scanner.Symbols) == 0 && c.Scanner.SymbolFile == "" && c.Scanner.Universe == "" {
		return fmt.Errorf("no symbols: set symbols, symbol_file or universe")
	}
	switch c.Store.Driver {
	case cooldown.DriverSQLite, cooldown.DriverFile, "":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// IndicatorParams maps the indicator section onto engine parameters
func (c *Config) IndicatorParams() indicator.Params {
	ind := c.Indicators
	return indicator.Params{
		RSIPeriod:       ind.RSIPeriod,
		EMAShort:        ind.EMAShort,
		EMAMedium:       ind.EMAMedium,
		EMALong:         ind.EMALong,
		MACDFast:        ind.MACDFast,
		MACDSlow:        ind.MACDSlow,
		MACDSignal:      ind.MACDSignal,
		BBPeriod:        ind.BBPeriod,
		BBStdDev:        ind.BBStdDev,
		IchimokuTenkan:  ind.IchimokuTenkan,
		IchimokuKijun:   ind.IchimokuKijun,
		IchimokuSenkouB: ind.IchimokuSenkouB,
		PSARStart:       ind.PSARStart,
		PSARIncrement:   ind.PSARIncrement,
		PSARMax:         ind.PSARMax,
		ADXPeriod:       ind.ADXPeriod,
	}
}

// ExtractorConfig returns the level extractor settings
func (c *Config) ExtractorConfig() levels.Config {
	return levels.Config{
		Window:    c.Levels.Window,
		Threshold: c.Levels.Threshold,
		Lookback:  c.Levels.Lookback,
	}
}

// ModuleConfig returns the module thresholds
func (c *Config) ModuleConfig() signal.Config {
	return signal.Config{
		RSIOverbought:    c.Signals.RSIOverbought,
		RSIOversold:      c.Signals.RSIOversold,
		VolatilitySymbol: c.Signals.VolatilitySymbol,
		ATRPeriod:        c.Signals.ATRPeriod,
		ATRAverageBars:   c.Signals.ATRAverageBars,
		ATRMultiplier:    c.Signals.ATRMultiplier,
		Levels:           c.ExtractorConfig(),
		Pattern:          pattern.DefaultConfig(),
	}
}

// ScanConfig returns the scan cycle settings
func (c *Config) ScanConfig() scanner.Config {
	return scanner.Config{
		Timeframes: c.Scanner.Timeframes,
		Limit:      c.Scanner.KlineLimit,
		MinVolume:  c.Scanner.MinVolume,
		Workers:    c.Scanner.Workers,
		Timeout:    c.Scanner.Timeout,
	}
}

// DispatchConfig returns the delivery settings
func (c *Config) DispatchConfig() notify.DispatchConfig {
	return notify.DispatchConfig{
		AnalysisChatID: c.Telegram.ChatID,
		TradeChatID:    c.Telegram.SignalsChatID,
		SendDelay:      c.Telegram.SendDelay,
		MaxRetries:     c.Telegram.MaxRetries,
	}
}
