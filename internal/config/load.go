package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/rcourtman/pulse-sysmon/internal/monitors"
	"github.com/rcourtman/pulse-sysmon/internal/sensors"
	"github.com/rcourtman/pulse-sysmon/internal/utils"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PULSE_SYSMON_"

// DotEnvName is the optional override file read from the config directory.
const DotEnvName = ".env"

// Load builds a configuration from the defaults, the YAML file at path (if
// any), a .env file beside it, and finally the process environment. The
// process environment wins over .env. The result is normalized.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			log.Debug().Str("config_file", path).Msg("Loaded configuration from file")
		case os.IsNotExist(err):
			log.Debug().Str("config_file", path).Msg("Config file not found, using defaults")
		default:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	dotenv, err := readDotEnv(DotEnvPath(path))
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg, newLookup(dotenv))

	for _, adj := range cfg.Normalize() {
		log.Warn().Str("adjustment", adj).Msg("Configuration value adjusted")
	}
	return cfg, nil
}

// DotEnvPath returns the .env location for a config file path: the same
// directory, or the working directory when no file is configured.
func DotEnvPath(configPath string) string {
	if configPath == "" {
		return DotEnvName
	}
	return filepath.Join(filepath.Dir(configPath), DotEnvName)
}

func readDotEnv(path string) (map[string]string, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return envMap, nil
}

type lookupFunc func(key string) (string, bool)

func newLookup(dotenv map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if _, ok := os.LookupEnv(key); ok {
			return utils.GetenvTrim(key), true
		}
		v, ok := dotenv[key]
		return strings.Trim(strings.TrimSpace(v), `'"`), ok
	}
}

func applyEnv(cfg *Config, lookup lookupFunc) {
	if v, ok := lookup(EnvPrefix + "PROC_ROOT"); ok && v != "" {
		cfg.ProcRoot = v
	}
	if v, ok := lookup(EnvPrefix + "SYS_ROOT"); ok && v != "" {
		cfg.SysRoot = v
	}
	if v, ok := lookup(EnvPrefix + "METRICS_ADDR"); ok {
		cfg.MetricsAddress = v
	}

	for _, f := range monitors.Families {
		applyPollEnv(cfg.poll(f), EnvPrefix+strings.ToUpper(string(f))+"_", lookup)
	}

	if v, ok := lookup(EnvPrefix + "DISK_COUNTER"); ok && v != "" {
		cfg.Disk.Counter = sensors.DiskCounter(strings.ToLower(v))
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := lookup("LOG_FILE"); ok && v != "" {
		cfg.Log.File = v
	}
}

func applyPollEnv(p *PollConfig, prefix string, lookup lookupFunc) {
	if v, ok := lookup(prefix + "ENABLED"); ok && v != "" {
		if enabled, known := utils.LookupBool(v); known {
			p.Enabled = enabled
		} else {
			log.Warn().Str("key", prefix+"ENABLED").Str("value", v).Msg("Ignoring invalid boolean override")
		}
	}
	if v, ok := lookup(prefix + "INTERVAL"); ok && v != "" {
		if d, err := parseInterval(v); err == nil {
			p.Interval = d
		} else {
			log.Warn().Err(err).Str("key", prefix+"INTERVAL").Msg("Ignoring invalid interval override")
		}
	}
	if v, ok := lookup(prefix + "MAX_SAMPLES"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxSamples = n
		} else {
			log.Warn().Err(err).Str("key", prefix+"MAX_SAMPLES").Msg("Ignoring invalid max_samples override")
		}
	}
}

// parseInterval accepts a Go duration or a bare number of milliseconds.
func parseInterval(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

// Marshal renders the configuration as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
