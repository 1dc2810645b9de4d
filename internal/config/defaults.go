package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppLogPath      = "/data/logs/predictbot.log"
	defaultExchangeTimeout = 10
	defaultExchangeRPS     = 5
	defaultSyncInterval    = 60
	defaultSyncDelay       = 30
	defaultBreakerTrips    = 3
	defaultBreakerCooldown = 60
	defaultStoreDBPath     = "/data/db/predictbot.db"
	defaultAdminAddr       = ":9991"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Sync.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Admin.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "exchange.timeout_seconds",
			need:  func() bool { return e.TimeoutSeconds <= 0 },
			apply: func() { e.TimeoutSeconds = defaultExchangeTimeout },
		},
		fieldDefault{
			key:   "exchange.requests_per_second",
			need:  func() bool { return e.RequestsPerSecond <= 0 },
			apply: func() { e.RequestsPerSecond = defaultExchangeRPS },
		},
	)
}

func (s *SyncConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "sync.interval_seconds",
			need:  func() bool { return s.IntervalSeconds <= 0 },
			apply: func() { s.IntervalSeconds = defaultSyncInterval },
		},
		fieldDefault{
			key:   "sync.initial_delay_seconds",
			need:  func() bool { return s.InitialDelaySeconds <= 0 },
			apply: func() { s.InitialDelaySeconds = defaultSyncDelay },
		},
		fieldDefault{
			key:   "sync.breaker_threshold",
			need:  func() bool { return s.BreakerThreshold <= 0 },
			apply: func() { s.BreakerThreshold = defaultBreakerTrips },
		},
		fieldDefault{
			key:   "sync.breaker_cooldown_seconds",
			need:  func() bool { return s.BreakerCooldownSeconds <= 0 },
			apply: func() { s.BreakerCooldownSeconds = defaultBreakerCooldown },
		},
	)
	if s.InitialDelaySeconds < 0 {
		s.InitialDelaySeconds = 0
	}
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.db_path", &s.DBPath, defaultStoreDBPath),
	)
}

func (a *AdminConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("admin.enabled", &a.Enabled, true),
		stringFieldDefault("admin.http_addr", &a.HTTPAddr, defaultAdminAddr),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
