package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "BLOOMD_"

// ConfigFileEnv names an optional YAML, JSON or TOML file loaded between the
// defaults and the environment.
const ConfigFileEnv = EnvPrefix + "CONFIG_FILE"

// DotenvFileEnv names an optional .env file. Its BLOOMD_ entries apply after
// the config file and before the process environment.
const DotenvFileEnv = EnvPrefix + "DOTENV_FILE"

// AppConfig is the process configuration.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	Log LoggingConfig `koanf:"log" validate:"required"`

	// Mode selects the transport: "tcp" serves many sessions, "stdio" one.
	Mode string `koanf:"mode" validate:"required,oneof=tcp stdio"`

	Server    ServerConfig    `koanf:"server" validate:"required"`
	Filter    FilterConfig    `koanf:"filter" validate:"required"`
	Blacklist BlacklistConfig `koanf:"blacklist" validate:"required"`
	Stats     StatsConfig     `koanf:"stats"`
}

// LoggingConfig controls log verbosity: "debug", "info", "warn", or "error".
type LoggingConfig struct {
	Level string `koanf:"level" validate:"required,oneof=debug info warn error"`
}

// ServerConfig configures the TCP listener.
type ServerConfig struct {
	Host     string `koanf:"host" validate:"listen_host"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	MaxConns int    `koanf:"max_conns" validate:"gte=0"`
	// MaxLineBytes may not exceed what the text store reads back (1 MiB).
	MaxLineBytes int `koanf:"max_line_bytes" validate:"gte=64,lte=1048576"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// FilterConfig configures the shared Bloom filter.
type FilterConfig struct {
	// Path is where the binary filter snapshot lives.
	Path string `koanf:"path" validate:"required"`
	// Hash names the hash family: "iterative" or "murmur".
	Hash string `koanf:"hash" validate:"required,oneof=iterative murmur"`
	// MaxSize caps the size a client may configure.
	MaxSize uint64 `koanf:"max_size" validate:"required,gte=1"`
	// MaxIterations caps each iterative hash count. Zero means unbounded.
	MaxIterations uint64 `koanf:"max_iterations"`
}

// BlacklistConfig configures the exact membership store.
type BlacklistConfig struct {
	Backend string      `koanf:"backend" validate:"required,oneof=file bolt redis"`
	Path    string      `koanf:"path"`
	Redis   RedisConfig `koanf:"redis"`
	Cache   CacheConfig `koanf:"cache"`
}

// RedisConfig is used when Backend is "redis".
type RedisConfig struct {
	Addr    string        `koanf:"addr"`
	Key     string        `koanf:"key" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// CacheConfig sizes the Check-outcome cache. Size 0 disables it.
type CacheConfig struct {
	Size int `koanf:"size" validate:"gte=0"`
}

// StatsConfig sets how often stats are logged. Zero disables the ticker.
type StatsConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
}

// DEFAULT_APP_CONFIG defines the default application configuration.
var DEFAULT_APP_CONFIG = AppConfig{
	Env: "prod",
	Log: LoggingConfig{
		Level: "info",
	},
	Mode: "tcp",
	Server: ServerConfig{
		Host:         "",
		Port:         8080,
		MaxConns:     0,
		MaxLineBytes: 64 * 1024,
	},
	Filter: FilterConfig{
		Path:          "/var/lib/bloomd/filter.bin",
		Hash:          "iterative",
		MaxSize:       1 << 30,
		MaxIterations: 1 << 16,
	},
	Blacklist: BlacklistConfig{
		Backend: "file",
		Path:    "/var/lib/bloomd/blacklist.txt",
		Redis: RedisConfig{
			Addr:    "",
			Key:     "bloomd:blacklist",
			Timeout: 2 * time.Second,
		},
		Cache: CacheConfig{
			Size: 4096,
		},
	},
	Stats: StatsConfig{
		Interval: 0,
	},
}

// envKeys maps environment variables (without prefix) to koanf keys.
// Variables not listed are ignored.
var envKeys = map[string]string{
	"ENV":                     "env",
	"LOG_LEVEL":               "log.level",
	"MODE":                    "mode",
	"SERVER_HOST":             "server.host",
	"SERVER_PORT":             "server.port",
	"SERVER_MAX_CONNS":        "server.max_conns",
	"SERVER_MAX_LINE_BYTES":   "server.max_line_bytes",
	"FILTER_PATH":             "filter.path",
	"FILTER_HASH":             "filter.hash",
	"FILTER_MAX_SIZE":         "filter.max_size",
	"FILTER_MAX_ITERATIONS":   "filter.max_iterations",
	"BLACKLIST_BACKEND":       "blacklist.backend",
	"BLACKLIST_PATH":          "blacklist.path",
	"BLACKLIST_REDIS_ADDR":    "blacklist.redis.addr",
	"BLACKLIST_REDIS_KEY":     "blacklist.redis.key",
	"BLACKLIST_REDIS_TIMEOUT": "blacklist.redis.timeout",
	"BLACKLIST_CACHE_SIZE":    "blacklist.cache.size",
	"STATS_INTERVAL":          "stats.interval",
}

// validListenHost accepts an empty host (all interfaces), "localhost",
// or a literal IP address.
func validListenHost(fl validator.FieldLevel) bool {
	host := fl.Field().String()
	if host == "" || host == "localhost" {
		return true
	}
	return net.ParseIP(host) != nil
}

// validBlacklist checks backend-specific requirements.
func validBlacklist(sl validator.StructLevel) {
	b := sl.Current().Interface().(BlacklistConfig)
	switch b.Backend {
	case "file", "bolt":
		if b.Path == "" {
			sl.ReportError(b.Path, "Path", "path", "required_for_backend", b.Backend)
		}
	case "redis":
		if b.Redis.Addr == "" {
			sl.ReportError(b.Redis.Addr, "Addr", "addr", "required_for_backend", b.Backend)
		}
	}
}

// lookupEnv reads the file-location variables; replaced in tests.
var lookupEnv = os.Getenv

// defaultLoader loads DEFAULT_APP_CONFIG into k.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads the file named by path, picking the parser by extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return fmt.Errorf("unsupported config file extension: %s", path)
	}
	return k.Load(file.Provider(path), parser)
}

// envKey maps a prefixed variable name to its koanf key.
func envKey(name string) (string, bool) {
	if !strings.HasPrefix(name, EnvPrefix) {
		return "", false
	}
	mapped, ok := envKeys[strings.TrimPrefix(name, EnvPrefix)]
	return mapped, ok
}

// dotenvLoader loads the BLOOMD_ entries of a .env file.
var dotenvLoader = func(k *koanf.Koanf, path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	values := make(map[string]interface{}, len(vars))
	for name, value := range vars {
		if key, ok := envKey(name); ok {
			values[key] = strings.TrimSpace(value)
		}
	}
	return k.Load(confmap.Provider(values, "."), nil)
}

// envLoader loads BLOOMD_ variables listed in envKeys.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			mapped, ok := envKey(key)
			if !ok {
				return "", nil
			}
			return mapped, strings.TrimSpace(value)
		},
	}), nil)
}

// registerValidation registers the custom tags and struct checks.
var registerValidation = func(v *validator.Validate) error {
	if err := v.RegisterValidation("listen_host", validListenHost); err != nil {
		return err
	}
	v.RegisterStructValidation(validBlacklist, BlacklistConfig{})
	return nil
}

// Load builds an AppConfig from defaults, the optional config file, the
// optional .env file and the environment, then validates it.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if path := strings.TrimSpace(lookupEnv(ConfigFileEnv)); path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	if path := strings.TrimSpace(lookupEnv(DotenvFileEnv)); path != "" {
		if err := dotenvLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading dotenv file %s: %w", path, err)
		}
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
