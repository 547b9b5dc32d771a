package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ExportSingle = "single"
	ExportDual   = "dual"
)

type Config struct {
	Exchange Exchange `yaml:"exchange"`
	Scan     Scan     `yaml:"scan"`
	History  History  `yaml:"history"`
	Export   Export   `yaml:"export"`
	Metrics  Metrics  `yaml:"metrics"`
	Log      Log      `yaml:"log"`

	// Schedule 为空时只跑一次，交给外部 cron。
	Schedule string `yaml:"schedule"`
}

type Exchange struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	SecretKey  string        `yaml:"secret_key"`
	ProxyURL   string        `yaml:"proxy_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	QuoteAsset string        `yaml:"quote_asset" default:"USDT" validate:"required"`
}

type Scan struct {
	Timeframe  string   `yaml:"timeframe" default:"15m" validate:"required"`
	RSIPeriod  int      `yaml:"rsi_period" default:"14" validate:"gt=0"`
	KlineLimit int      `yaml:"kline_limit" default:"50" validate:"gtfield=RSIPeriod,lte=1500"`
	Overbought float64  `yaml:"overbought" default:"70" validate:"gtfield=Oversold,lt=100"`
	Oversold   float64  `yaml:"oversold" default:"30" validate:"gt=0"`
	Workers    int      `yaml:"workers" default:"1" validate:"gte=1,lte=32"`
	Exclude    []string `yaml:"exclude"`
}

type History struct {
	Path          string `yaml:"path" default:"data/rsi-history.csv" validate:"required"`
	RetentionDays int    `yaml:"retention_days" default:"7" validate:"gt=0"`
	Timezone      string `yaml:"timezone" default:"Asia/Shanghai"`
	MySQLDSN      string `yaml:"mysql_dsn"`
}

// Retention 返回保留窗口。
func (h History) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}

type Export struct {
	Mode           string `yaml:"mode" default:"single" validate:"oneof=single dual"`
	AlertsPath     string `yaml:"alerts_path" default:"rsi-alerts.csv" validate:"required_if=Mode single"`
	OverboughtPath string `yaml:"overbought_path" default:"rsi-overbought.csv" validate:"required_if=Mode dual"`
	OversoldPath   string `yaml:"oversold_path" default:"rsi-oversold.csv" validate:"required_if=Mode dual"`
}

type Metrics struct {
	Textfile string `yaml:"textfile"`
}

type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
}

var validate = validator.New()

// Default 返回全部取默认值的配置。
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads a YAML file on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, c.Validate()
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// yaml 里显式写成零值的字段重新补默认值
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if any), the YAML file, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.Exchange.SecretKey = v
	}
	if v := os.Getenv("RSISCAN_PROXY_URL"); v != "" {
		c.Exchange.ProxyURL = v
	}
	if v := os.Getenv("RSISCAN_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("RSISCAN_HISTORY_MYSQL_DSN"); v != "" {
		c.History.MySQLDSN = v
	}
	if v := os.Getenv("RSISCAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RSISCAN_EXPORT_MODE"); v != "" {
		c.Export.Mode = v
	}
	if v := os.Getenv("RSISCAN_EXCLUDE"); v != "" {
		c.Scan.Exclude = nil
		for _, sym := range strings.Split(v, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				c.Scan.Exclude = append(c.Scan.Exclude, sym)
			}
		}
	}
	if v := os.Getenv("RSISCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("RSISCAN_WORKERS: %w", err)
		}
		c.Scan.Workers = n
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks field rules declared in struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
