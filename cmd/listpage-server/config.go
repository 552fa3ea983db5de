package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. LISTPAGE_REDIS_ADDR.
const envPrefix = "LISTPAGE"

// serverConfig is the resolved command configuration.
type serverConfig struct {
	Addr              string
	RedisAddr         string
	RedisTTL          time.Duration
	UpstreamURL       string
	UpstreamRPS       int
	UserAgent         string
	Lists             []string
	PageSize          int
	EnableRefresh     bool
	EnableReachBottom bool
	LogLevel          string
	LogPretty         bool
}

// registerFlags defines every configuration key as a flag.
func registerFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "optional config file (yaml, json or toml)")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("redis.addr", "localhost:6379", "Redis address for view state; empty keeps state in memory")
	flags.Duration("redis.ttl", 0, "expiry of pushed view state (0 keeps it until overwritten)")
	flags.String("upstream.url", "", "base URL of the paged upstream; each list is served at <url>/<name>")
	flags.Int("upstream.rps", 10, "upstream requests per second (0 disables throttling)")
	flags.String("upstream.user_agent", "listpage-server/0.1.0", "User-Agent sent upstream")
	flags.StringSlice("lists", []string{"default"}, "list names; the first is active initially")
	flags.Int("page_size", 10, "items per page")
	flags.Bool("enable_refresh", false, "handle pull-down refresh")
	flags.Bool("enable_reach_bottom", true, "handle reach-bottom")
	flags.String("log.level", "info", "log level (debug, info, warn, error, disabled)")
	flags.Bool("log.pretty", false, "human-readable console logs")
}

// newViper binds flags, LISTPAGE_* environment variables and an optional
// config file, in increasing order of precedence: file, env, flags.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	return v, nil
}

// loadConfig resolves and validates the configuration held by v.
func loadConfig(v *viper.Viper) (serverConfig, error) {
	cfg := serverConfig{
		Addr:              v.GetString("addr"),
		RedisAddr:         v.GetString("redis.addr"),
		RedisTTL:          v.GetDuration("redis.ttl"),
		UpstreamURL:       v.GetString("upstream.url"),
		UpstreamRPS:       v.GetInt("upstream.rps"),
		UserAgent:         v.GetString("upstream.user_agent"),
		Lists:             splitNames(v.GetStringSlice("lists")),
		PageSize:          v.GetInt("page_size"),
		EnableRefresh:     v.GetBool("enable_refresh"),
		EnableReachBottom: v.GetBool("enable_reach_bottom"),
		LogLevel:          v.GetString("log.level"),
		LogPretty:         v.GetBool("log.pretty"),
	}

	if cfg.UpstreamURL == "" {
		return cfg, fmt.Errorf("upstream.url is required")
	}
	if len(cfg.Lists) == 0 {
		return cfg, fmt.Errorf("lists must name at least one list")
	}
	if cfg.PageSize < 0 {
		return cfg, fmt.Errorf("page_size must be >= 0 (got %d)", cfg.PageSize)
	}
	if cfg.UpstreamRPS < 0 {
		return cfg, fmt.Errorf("upstream.rps must be >= 0 (got %d)", cfg.UpstreamRPS)
	}

	return cfg, nil
}

// splitNames flattens comma separated entries, as LISTPAGE_LISTS=a,b arrives
// as a single value.
func splitNames(values []string) []string {
	var names []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
