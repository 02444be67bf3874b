package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server configuration surface
type Config struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`

	DBPath         string `mapstructure:"db_path"`
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`

	// Modalities. Audio analysis is off by default; enabling it adds
	// audio_mfcc_variance to the pipeline and the scoring inputs.
	AudioEnabled    bool     `mapstructure:"audio_enabled"`
	MetadataEnabled bool     `mapstructure:"metadata_enabled"`
	FacialAnalyzer  []string `mapstructure:"facial_analyzer"`
	AudioAnalyzer   []string `mapstructure:"audio_analyzer"`
	FFprobePath     string   `mapstructure:"ffprobe_path"`

	ExtractorTimeout  time.Duration `mapstructure:"extractor_timeout"`
	MaxConcurrentJobs int64         `mapstructure:"max_concurrent_jobs"`

	// ScoringProfile optionally points at a YAML threshold profile;
	// empty uses the compiled-in default
	ScoringProfile string `mapstructure:"scoring_profile"`

	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("db_path", "notreally.db")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_bytes", int64(100*1024*1024)) // 100MB
	v.SetDefault("audio_enabled", false)
	v.SetDefault("metadata_enabled", true)
	v.SetDefault("facial_analyzer", []string{"notreally-facial-analyzer"})
	v.SetDefault("audio_analyzer", []string{"notreally-audio-analyzer"})
	v.SetDefault("ffprobe_path", "ffprobe")
	v.SetDefault("extractor_timeout", 2*time.Minute)
	v.SetDefault("max_concurrent_jobs", int64(4))
	v.SetDefault("scoring_profile", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Load reads configuration from an optional YAML file and the
// NOTREALLY_* environment, falling back to defaults
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NOTREALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("notreally")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/notreally")
		if err := v.ReadInConfig(); err != nil {
			// Missing file is fine; defaults and env apply
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("max_concurrent_jobs must be positive, got %d", c.MaxConcurrentJobs)
	}
	if c.ExtractorTimeout <= 0 {
		return fmt.Errorf("extractor_timeout must be positive, got %v", c.ExtractorTimeout)
	}
	if len(c.FacialAnalyzer) == 0 {
		return fmt.Errorf("facial_analyzer command must be set")
	}
	if c.AudioEnabled && len(c.AudioAnalyzer) == 0 {
		return fmt.Errorf("audio_analyzer command must be set when audio is enabled")
	}
	return nil
}
