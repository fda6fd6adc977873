package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	match "github.com/0x5487/exchange-simulator"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Book struct {
		PrevClose string `yaml:"prev_close"`
		TickSize  string `yaml:"tick_size"`
		LotSize   int64  `yaml:"lot_size"`
	} `yaml:"book"`
	Logging struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

func Default() Config {
	var c Config
	c.Book.PrevClose = strconv.Itoa(match.DefaultPrevClose)
	c.Book.TickSize = match.DefaultTickSize
	c.Book.LotSize = match.DefaultLotSize
	c.Logging.Level = "info"
	c.Logging.Development = false
	c.Metrics.Addr = ""
	return c
}

// Load builds the configuration.
// Priority: ENV > .env file > YAML file at path > defaults.
// An empty path skips the YAML file, a missing .env file is ignored.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, fmt.Errorf("config: load .env: %w", err)
	}

	if v := os.Getenv("EXSIM_PREV_CLOSE"); v != "" {
		c.Book.PrevClose = v
	}
	if v := os.Getenv("EXSIM_TICK_SIZE"); v != "" {
		c.Book.TickSize = v
	}
	if v := os.Getenv("EXSIM_LOT_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("config: EXSIM_LOT_SIZE: %w", err)
		}
		c.Book.LotSize = n
	}
	if v := os.Getenv("EXSIM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("EXSIM_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	if _, err := c.BookConfig(); err != nil {
		return c, err
	}
	return c, nil
}

// BookConfig converts the book section into a validated match.BookConfig.
func (c Config) BookConfig() (match.BookConfig, error) {
	prevClose, err := decimal.NewFromString(c.Book.PrevClose)
	if err != nil {
		return match.BookConfig{}, fmt.Errorf("%w: prev close %q: %v", match.ErrInvalidConfig, c.Book.PrevClose, err)
	}
	tickSize, err := decimal.NewFromString(c.Book.TickSize)
	if err != nil {
		return match.BookConfig{}, fmt.Errorf("%w: tick size %q: %v", match.ErrInvalidConfig, c.Book.TickSize, err)
	}

	cfg := match.BookConfig{
		PrevClose: prevClose,
		TickSize:  tickSize,
		LotSize:   c.Book.LotSize,
	}
	if err := cfg.Validate(); err != nil {
		return match.BookConfig{}, err
	}
	return cfg, nil
}
