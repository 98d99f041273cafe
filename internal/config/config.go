package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	G2P      G2PConfig     `mapstructure:"g2p"`
	Espeak   EspeakConfig  `mapstructure:"espeak"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Server   ServerConfig  `mapstructure:"server"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	LexiconPath   string `mapstructure:"lexicon_path"`
	ModelManifest string `mapstructure:"model_manifest"`
	VocabPath     string `mapstructure:"vocab_path"`
}

type G2PConfig struct {
	Dialect       string `mapstructure:"dialect"`
	Transformer   bool   `mapstructure:"transformer"`
	Fallback      bool   `mapstructure:"fallback"`
	UnknownMarker string `mapstructure:"unknown_marker"`
	Concurrency   int    `mapstructure:"concurrency"`
}

type EspeakConfig struct {
	Path      string `mapstructure:"path"`
	DataPath  string `mapstructure:"data_path"`
	CacheSize int    `mapstructure:"cache_size"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		G2P: G2PConfig{
			Dialect:       "en-us",
			Transformer:   false,
			Fallback:      true,
			UnknownMarker: "❓",
			Concurrency:   4,
		},
		Espeak: EspeakConfig{
			Path:      "espeak-ng",
			CacheSize: 1024,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    4096,
			RequestTimeout:  30,
			ShutdownTimeout: 10,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each registered flag to its configuration key.
var flagKeys = map[string]string{
	"lexicon":                 "paths.lexicon_path",
	"model-manifest":          "paths.model_manifest",
	"vocab":                   "paths.vocab_path",
	"dialect":                 "g2p.dialect",
	"transformer":             "g2p.transformer",
	"fallback":                "g2p.fallback",
	"unknown-marker":          "g2p.unknown_marker",
	"concurrency":             "g2p.concurrency",
	"espeak-path":             "espeak.path",
	"espeak-data-path":        "espeak.data_path",
	"espeak-cache-size":       "espeak.cache_size",
	"ort-lib":                 "runtime.ort_library_path",
	"runtime-ort-version":     "runtime.ort_version",
	"server-listen-addr":      "server.listen_addr",
	"server-workers":          "server.workers",
	"server-max-text-bytes":   "server.max_text_bytes",
	"server-request-timeout":  "server.request_timeout",
	"server-shutdown-timeout": "server.shutdown_timeout",
	"log-level":               "log_level",
}

// envKeys are short environment names accepted besides the G2P_<SECTION>_<KEY> form.
var envKeys = map[string][]string{
	"g2p.dialect":              {"G2P_DIALECT"},
	"g2p.transformer":          {"G2P_TRANSFORMER"},
	"g2p.fallback":             {"G2P_FALLBACK"},
	"g2p.unknown_marker":       {"G2P_UNKNOWN_MARKER"},
	"g2p.concurrency":          {"G2P_CONCURRENCY"},
	"runtime.ort_library_path": {"G2P_RUNTIME_ORT_LIBRARY_PATH", "G2P_ORT_LIB", "ORT_LIBRARY_PATH"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("lexicon", defaults.Paths.LexiconPath, "Extra JSON lexicon merged over the built-in one")
	fs.String("model-manifest", defaults.Paths.ModelManifest, "Neural G2P model manifest (JSON)")
	fs.String("vocab", defaults.Paths.VocabPath, "Phoneme vocabulary file (symbol<TAB>id per line)")
	fs.String("dialect", defaults.G2P.Dialect, "English dialect: en-us or en-gb")
	fs.Bool("transformer", defaults.G2P.Transformer, "Resolve lexicon misses with the neural model")
	fs.Bool("fallback", defaults.G2P.Fallback, "Resolve remaining tokens with espeak-ng")
	fs.String("unknown-marker", defaults.G2P.UnknownMarker, "Marker emitted for unresolved tokens")
	fs.Int("concurrency", defaults.G2P.Concurrency, "Max parallel fallback calls per conversion")
	fs.String("espeak-path", defaults.Espeak.Path, "Path to espeak-ng executable")
	fs.String("espeak-data-path", defaults.Espeak.DataPath, "Path to espeak-ng-data directory")
	fs.Int("espeak-cache-size", defaults.Espeak.CacheSize, "Fallback result cache entries (negative disables)")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("runtime-ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent conversions in the server")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("G2P")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env vars for %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("g2p")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindFlags binds every registered flag present in fs to its key. Flags
// that were not registered (command-local ones) are left alone.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.lexicon_path", c.Paths.LexiconPath)
	v.SetDefault("paths.model_manifest", c.Paths.ModelManifest)
	v.SetDefault("paths.vocab_path", c.Paths.VocabPath)
	v.SetDefault("g2p.dialect", c.G2P.Dialect)
	v.SetDefault("g2p.transformer", c.G2P.Transformer)
	v.SetDefault("g2p.fallback", c.G2P.Fallback)
	v.SetDefault("g2p.unknown_marker", c.G2P.UnknownMarker)
	v.SetDefault("g2p.concurrency", c.G2P.Concurrency)
	v.SetDefault("espeak.path", c.Espeak.Path)
	v.SetDefault("espeak.data_path", c.Espeak.DataPath)
	v.SetDefault("espeak.cache_size", c.Espeak.CacheSize)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}
