package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Session  SessionConfig  `mapstructure:"session"`
	Startup  StartupConfig  `mapstructure:"startup"`
	Server   ServerConfig   `mapstructure:"server"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	LogLevel string         `mapstructure:"log_level"`
}

type PathsConfig struct {
	HistoryDir string `mapstructure:"history_dir"`
	// ModelPath may point at the directory handed over by the fine-tuning job.
	ModelPath       string `mapstructure:"model_path"`
	ModelConfigPath string `mapstructure:"model_config_path"`
	VoiceManifest   string `mapstructure:"voice_manifest"`
	ORTLibraryPath  string `mapstructure:"ort_library_path"`
}

type TTSConfig struct {
	Engine        string        `mapstructure:"engine"`
	Speaker       string        `mapstructure:"speaker"`
	CLIPath       string        `mapstructure:"cli_path"`
	CLIConfigPath string        `mapstructure:"cli_config_path"`
	Quiet         bool          `mapstructure:"quiet"`
	UseGPU        bool          `mapstructure:"use_gpu"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxChars      int           `mapstructure:"max_chars"`
	Piper         PiperConfig   `mapstructure:"piper"`
}

// PiperConfig holds Wyoming endpoint settings. Endpoints maps ISO-639-1 codes
// to per-language servers; Endpoint is the fallback.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"`
}

type PlaybackConfig struct {
	Device          string `mapstructure:"device"`
	Command         string `mapstructure:"command"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
}

type SessionConfig struct {
	Name             string `mapstructure:"name"`
	Language         string `mapstructure:"language"`
	PromptLanguage   bool   `mapstructure:"prompt_language"`
	StartMessage     string `mapstructure:"start_message"`
	ReadyMessage     string `mapstructure:"ready_message"`
	Greeting         string `mapstructure:"greeting"`
	Farewell         string `mapstructure:"farewell"`
	LanguageSwitched string `mapstructure:"language_switched"`
}

type StartupConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr"`
}

type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
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
		Paths: PathsConfig{
			HistoryDir:      "history",
			ModelPath:       "/models/xtts_v2",
			ModelConfigPath: "",
			VoiceManifest:   "voices/manifest.json",
			ORTLibraryPath:  "",
		},
		TTS: TTSConfig{
			Engine:        EngineCoqui,
			Speaker:       "Tanja Adelina",
			CLIPath:       "",
			CLIConfigPath: "",
			Quiet:         true,
			UseGPU:        false,
			Timeout:       2 * time.Minute,
			MaxChars:      250,
			Piper: PiperConfig{
				Endpoint: "localhost:10200",
			},
		},
		Playback: PlaybackConfig{
			Device:          DeviceCommand,
			Command:         "",
			FramesPerBuffer: 1024,
		},
		Session: SessionConfig{
			Name:             "FRIDAY",
			Language:         "en",
			PromptLanguage:   true,
			StartMessage:     "Initializing system...",
			ReadyMessage:     "System initialized!",
			Greeting:         "Hello Astro! Friday is online and ready to assist you.",
			Farewell:         "Goodbye, Astro! Shutting down.",
			LanguageSwitched: "Language switched to %s.",
		},
		Startup: StartupConfig{
			Delay: 3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: "",
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each registered flag to its config key.
var flagKeys = map[string]string{
	"history-dir":         "paths.history_dir",
	"model-path":          "paths.model_path",
	"model-config-path":   "paths.model_config_path",
	"voice-manifest":      "paths.voice_manifest",
	"ort-lib":             "paths.ort_library_path",
	"engine":              "tts.engine",
	"speaker":             "tts.speaker",
	"tts-cli-path":        "tts.cli_path",
	"tts-cli-config-path": "tts.cli_config_path",
	"tts-quiet":           "tts.quiet",
	"use-gpu":             "tts.use_gpu",
	"tts-timeout":         "tts.timeout",
	"tts-max-chars":       "tts.max_chars",
	"piper-endpoint":      "tts.piper.endpoint",
	"device":              "playback.device",
	"player":              "playback.command",
	"session-name":        "session.name",
	"language":            "session.language",
	"prompt-language":     "session.prompt_language",
	"startup-delay":       "startup.delay",
	"grpc-addr":           "server.grpc_addr",
	"notify":              "notify.enabled",
	"log-level":           "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("history-dir", defaults.Paths.HistoryDir, "Directory where generated audio is kept")
	fs.String("model-path", defaults.Paths.ModelPath, "Synthesis model path (e.g. the fine-tuned XTTS directory)")
	fs.String("model-config-path", defaults.Paths.ModelConfigPath, "Synthesis model config path (defaults to <model-path>/config.json)")
	fs.String("voice-manifest", defaults.Paths.VoiceManifest, "Speaker profile manifest")
	fs.String("ort-lib", defaults.Paths.ORTLibraryPath, "Path to ONNX Runtime shared library (doctor probe)")
	fs.String("engine", defaults.TTS.Engine, "Synthesis engine (coqui|pocket-tts|piper)")
	fs.String("speaker", defaults.TTS.Speaker, "Speaker profile ID, reference WAV path or built-in speaker name")
	fs.String("tts-cli-path", defaults.TTS.CLIPath, "Path to the engine executable")
	fs.String("tts-cli-config-path", defaults.TTS.CLIConfigPath, "Path to pocket-tts config file")
	fs.Bool("tts-quiet", defaults.TTS.Quiet, "Silence engine progress output")
	fs.Bool("use-gpu", defaults.TTS.UseGPU, "Run the coqui engine on CUDA")
	fs.Duration("tts-timeout", defaults.TTS.Timeout, "Per-utterance synthesis deadline")
	fs.Int("tts-max-chars", defaults.TTS.MaxChars, "Split longer utterances at sentence boundaries (0 disables)")
	fs.String("piper-endpoint", defaults.TTS.Piper.Endpoint, "Piper Wyoming endpoint (host:port)")
	fs.String("device", defaults.Playback.Device, "Playback device (portaudio|command)")
	fs.String("player", defaults.Playback.Command, "External player executable for --device=command")
	fs.String("session-name", defaults.Session.Name, "Assistant name used for artifact file names")
	fs.String("language", defaults.Session.Language, "Initial language code")
	fs.Bool("prompt-language", defaults.Session.PromptLanguage, "Ask for the language before starting")
	fs.Duration("startup-delay", defaults.Startup.Delay, "Minimum wait between start and ready announcements")
	fs.String("grpc-addr", defaults.Server.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.Bool("notify", defaults.Notify.Enabled, "Send desktop notifications for failures")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("FRIDAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("friday")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks enumerations and invariants that cannot be expressed as
// defaults. Engine and device names are normalized in place.
func (c *Config) Validate() error {
	engine, err := NormalizeEngine(c.TTS.Engine)
	if err != nil {
		return err
	}
	c.TTS.Engine = engine

	device, err := NormalizeDevice(c.Playback.Device)
	if err != nil {
		return err
	}
	c.Playback.Device = device

	if strings.TrimSpace(c.Paths.HistoryDir) == "" {
		return fmt.Errorf("paths.history_dir must not be empty")
	}
	if strings.TrimSpace(c.Session.Name) == "" {
		return fmt.Errorf("session.name must not be empty")
	}
	if strings.ContainsAny(c.Session.Name, `/\`) {
		return fmt.Errorf("session.name %q must not contain path separators", c.Session.Name)
	}
	if strings.TrimSpace(c.Session.Language) == "" {
		return fmt.Errorf("session.language must not be empty")
	}
	if c.TTS.MaxChars < 0 {
		return fmt.Errorf("tts.max_chars must not be negative, got %d", c.TTS.MaxChars)
	}
	if c.Startup.Delay <= 0 {
		return fmt.Errorf("startup.delay must be positive, got %s", c.Startup.Delay)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.history_dir", c.Paths.HistoryDir)
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.model_config_path", c.Paths.ModelConfigPath)
	v.SetDefault("paths.voice_manifest", c.Paths.VoiceManifest)
	v.SetDefault("paths.ort_library_path", c.Paths.ORTLibraryPath)
	v.SetDefault("tts.engine", c.TTS.Engine)
	v.SetDefault("tts.speaker", c.TTS.Speaker)
	v.SetDefault("tts.cli_path", c.TTS.CLIPath)
	v.SetDefault("tts.cli_config_path", c.TTS.CLIConfigPath)
	v.SetDefault("tts.quiet", c.TTS.Quiet)
	v.SetDefault("tts.use_gpu", c.TTS.UseGPU)
	v.SetDefault("tts.timeout", c.TTS.Timeout)
	v.SetDefault("tts.max_chars", c.TTS.MaxChars)
	v.SetDefault("tts.piper.endpoint", c.TTS.Piper.Endpoint)
	v.SetDefault("tts.piper.endpoints", c.TTS.Piper.Endpoints)
	v.SetDefault("tts.piper.voices", c.TTS.Piper.Voices)
	v.SetDefault("playback.device", c.Playback.Device)
	v.SetDefault("playback.command", c.Playback.Command)
	v.SetDefault("playback.frames_per_buffer", c.Playback.FramesPerBuffer)
	v.SetDefault("session.name", c.Session.Name)
	v.SetDefault("session.language", c.Session.Language)
	v.SetDefault("session.prompt_language", c.Session.PromptLanguage)
	v.SetDefault("session.start_message", c.Session.StartMessage)
	v.SetDefault("session.ready_message", c.Session.ReadyMessage)
	v.SetDefault("session.greeting", c.Session.Greeting)
	v.SetDefault("session.farewell", c.Session.Farewell)
	v.SetDefault("session.language_switched", c.Session.LanguageSwitched)
	v.SetDefault("startup.delay", c.Startup.Delay)
	v.SetDefault("server.grpc_addr", c.Server.GRPCAddr)
	v.SetDefault("notify.enabled", c.Notify.Enabled)
	v.SetDefault("log_level", c.LogLevel)
}
