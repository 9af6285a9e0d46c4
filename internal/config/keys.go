package config

import (
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "EHSBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "EHSBOT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.upload_dir", typ: kString, env: "EHSBOT_STORAGE_UPLOAD_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.UploadDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.UploadDir },
	},
	{
		key: "bot.api_token", typ: kString, env: "EHSBOT_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Bot.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Bot.APIToken },
	},
	{
		key: "bot.session_max_age", typ: kString, env: "EHSBOT_SESSION_MAX_AGE",
		apply:   func(cfg *Config, v any) { cfg.Bot.SessionMaxAge = v.(string) },
		extract: func(cfg Config) any { return cfg.Bot.SessionMaxAge },
	},
	{
		key: "bot.sweep_interval", typ: kString, env: "EHSBOT_SWEEP_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Bot.SweepInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Bot.SweepInterval },
	},
	{
		key: "log.level", typ: kString, env: "EHSBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, spec := range specs {
		raw, ok := os.LookupEnv(spec.env)
		if !ok || raw == "" {
			continue
		}
		switch spec.typ {
		case kString:
			spec.apply(cfg, raw)
		case kInt:
			if v, err := strconv.Atoi(raw); err == nil {
				spec.apply(cfg, v)
			}
		}
	}
}

// KeyValue is one configuration entry for display.
type KeyValue struct {
	Key   string
	Value string
}

// ShowAll returns every configuration key and its current value, with
// secrets redacted.
func ShowAll(cfg Config) []KeyValue {
	out := make([]KeyValue, 0, len(specs))
	for _, spec := range specs {
		val := spec.extract(cfg)
		display := ""
		switch v := val.(type) {
		case string:
			display = v
		case int:
			display = strconv.Itoa(v)
		}
		if spec.secret && display != "" {
			display = "********"
		}
		out = append(out, KeyValue{Key: spec.key, Value: display})
	}
	return out
}
