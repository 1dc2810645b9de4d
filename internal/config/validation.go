package config

import (
	"fmt"
	"net/url"
	"strings"
)

func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Admin.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	raw := strings.TrimSpace(e.APIURL)
	if raw == "" {
		return fmt.Errorf("exchange.api_url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("exchange.api_url is not a valid URL: %s", raw)
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("exchange.timeout_seconds must be > 0")
	}
	if e.RequestsPerSecond <= 0 {
		return fmt.Errorf("exchange.requests_per_second must be > 0")
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.IntervalSeconds < 1 {
		return fmt.Errorf("sync.interval_seconds must be >= 1")
	}
	if s.InitialDelaySeconds < 0 {
		return fmt.Errorf("sync.initial_delay_seconds must be >= 0")
	}
	if s.BreakerThreshold < 1 {
		return fmt.Errorf("sync.breaker_threshold must be >= 1")
	}
	if s.BreakerCooldownSeconds < 1 {
		return fmt.Errorf("sync.breaker_cooldown_seconds must be >= 1")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token")
		}
	}
	return nil
}

func (s *StoreConfig) validate() error {
	if strings.TrimSpace(s.DBPath) == "" {
		return fmt.Errorf("store.db_path cannot be empty")
	}
	return nil
}

func (a *AdminConfig) validate() error {
	if a.Enabled && strings.TrimSpace(a.HTTPAddr) == "" {
		return fmt.Errorf("admin enabled but missing http_addr")
	}
	return nil
}
