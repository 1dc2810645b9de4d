package config

import (
	"strings"
	"time"
)

// Config is the top-level configuration for predictbot.
type Config struct {
	App      AppConfig      `toml:"app"`
	Exchange ExchangeConfig `toml:"exchange"`
	Sync     SyncConfig     `toml:"sync"`
	Notify   NotifyConfig   `toml:"notify"`
	Store    StoreConfig    `toml:"store"`
	Admin    AdminConfig    `toml:"admin"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// ExchangeConfig describes how the exchange REST API is reached.
type ExchangeConfig struct {
	APIURL            string  `toml:"api_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// SyncConfig controls the order reconciliation loop.
type SyncConfig struct {
	IntervalSeconds        int `toml:"interval_seconds"`
	InitialDelaySeconds    int `toml:"initial_delay_seconds"`
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

func (s SyncConfig) InitialDelay() time.Duration {
	return time.Duration(s.InitialDelaySeconds) * time.Second
}

func (s SyncConfig) BreakerCooldown() time.Duration {
	return time.Duration(s.BreakerCooldownSeconds) * time.Second
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled       bool   `toml:"enabled"`
	BotToken      string `toml:"bot_token"`
	DefaultChatID int64  `toml:"default_chat_id"`
}

type StoreConfig struct {
	DBPath string `toml:"db_path"`
}

type AdminConfig struct {
	Enabled  bool   `toml:"enabled"`
	HTTPAddr string `toml:"http_addr"`
}

// keySet tracks the field paths explicitly present in the config files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault describes the default rule for a single field.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
