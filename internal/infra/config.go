package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every application setting. Sensitive or environment
// specific values can be overridden via environment variables after load.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL     string `yaml:"ws_url"`
		InstID    string `yaml:"inst_id"`
		Channel   string `yaml:"channel"`    // Order book channel, e.g. "books"
		InboxSize int    `yaml:"inbox_size"` // Engine inbox buffer
	} `yaml:"feed"`

	Simulation struct {
		DepthLevels              int     `yaml:"depth_levels"` // Levels aggregated into market depth
		DefaultVolatility        float64 `yaml:"default_volatility"`
		DefaultFeeTier           string  `yaml:"default_fee_tier"`
		FallbackMakerProbability float64 `yaml:"fallback_maker_probability"`

		Impact struct {
			Eta                 float64 `yaml:"eta"`
			Theta               float64 `yaml:"theta"`
			ReferenceVolatility float64 `yaml:"reference_volatility"`
			DepthAdjusted       bool    `yaml:"depth_adjusted"`
		} `yaml:"impact"`

		Scorer struct {
			SpreadWeight     float64 `yaml:"spread_weight"`
			DepthWeight      float64 `yaml:"depth_weight"`
			VolatilityWeight float64 `yaml:"volatility_weight"`
			SizeWeight       float64 `yaml:"size_weight"`
		} `yaml:"scorer"`

		Slippage struct {
			Mode               string  `yaml:"mode"` // "fixed", "percentage", "volume"
			Fixed              float64 `yaml:"fixed"`
			Percentage         float64 `yaml:"percentage"`
			VolumeImpactFactor float64 `yaml:"volume_impact_factor"`
			Min                float64 `yaml:"min"`
			Max                float64 `yaml:"max"` // 0 = unbounded
		} `yaml:"slippage"`
	} `yaml:"simulation"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		Dir        string `yaml:"dir"`          // Default "logs"
		MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate above this size
		MaxBackups int    `yaml:"max_backups"`  // Rotated files kept
		MaxAgeDays int    `yaml:"max_age_days"` // Rotated files retention
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Feed.WSURL == "" || (!hasPrefix(c.Feed.WSURL, "ws://") && !hasPrefix(c.Feed.WSURL, "wss://")) {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	if c.Feed.InstID == "" {
		return fmt.Errorf("feed instrument id is required")
	}
	if c.Feed.InboxSize <= 0 {
		return fmt.Errorf("feed inbox size must be positive")
	}

	if c.Simulation.DepthLevels <= 0 {
		return fmt.Errorf("simulation depth levels must be positive")
	}
	// Reference volatility divides the impact formulas; zero is a
	// configuration error caught here, never at estimate time.
	if c.Simulation.Impact.ReferenceVolatility <= 0 {
		return fmt.Errorf("impact reference volatility must be positive")
	}
	if p := c.Simulation.FallbackMakerProbability; p < 0 || p > 1 {
		return fmt.Errorf("fallback maker probability must be in [0,1]")
	}

	switch c.Simulation.Slippage.Mode {
	case "", "fixed", "percentage", "volume":
	default:
		return fmt.Errorf("unknown slippage mode: %s", c.Simulation.Slippage.Mode)
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required when storage is enabled")
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("TRADESIM_WS_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if inst := os.Getenv("TRADESIM_INST_ID"); inst != "" {
		cfg.Feed.InstID = inst
	}
	if path := os.Getenv("TRADESIM_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
