package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"swissdox-cli/internal/corpus"
	"swissdox-cli/internal/jobs"
	"swissdox-cli/internal/util"
)

const DefaultBaseURL = "https://swissdox.linguistik.uzh.ch/api"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Run    RunConfig    `yaml:"run"`
	Corpus CorpusConfig `yaml:"corpus"`
	Ledger LedgerConfig `yaml:"ledger"`
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

type RunConfig struct {
	PollIntervalMs       int      `yaml:"poll_interval_ms"`
	PollTimeoutSecond    int      `yaml:"poll_timeout_second"`
	RequestTimeoutSecond int      `yaml:"request_timeout_second"`
	DoneStatus           string   `yaml:"done_status"`
	FailedStatuses       []string `yaml:"failed_statuses"`
	MaxConcurrent        int      `yaml:"max_concurrent"`
}

type CorpusConfig struct {
	NoiseMarker     string   `yaml:"noise_marker"`
	ParagraphMarker string   `yaml:"paragraph_marker"`
	VideoCodes      []string `yaml:"video_codes"`
	AudioCodes      []string `yaml:"audio_codes"`
}

type LedgerConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

func Default() (Config, error) {
	ledgerPath, err := util.DefaultLedgerPath()
	if err != nil {
		return Config{}, err
	}
	return Config{
		Server: ServerConfig{BaseURL: DefaultBaseURL},
		Run: RunConfig{
			PollIntervalMs:       30000,
			PollTimeoutSecond:    6 * 3600,
			RequestTimeoutSecond: 60,
			DoneStatus:           "finished",
			FailedStatuses:       []string{"failed", "error"},
			MaxConcurrent:        4,
		},
		Corpus: CorpusConfig{
			NoiseMarker:     corpus.DefaultNoiseMarker,
			ParagraphMarker: corpus.DefaultParagraphMarker,
			VideoCodes:      append([]string(nil), corpus.DefaultVideoCodes...),
			AudioCodes:      append([]string(nil), corpus.DefaultAudioCodes...),
		},
		Ledger: LedgerConfig{Path: ledgerPath},
	}, nil
}

func ResolvePath(input string) (string, error) {
	if input != "" {
		return input, nil
	}
	return util.DefaultConfigPath()
}

func LoadOrInit(path string) (Config, error) {
	def, err := Default()
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Save(path, def); err != nil {
			return Config{}, err
		}
		return def, nil
	}
	cfg := def
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Run.PollIntervalMs <= 0 {
		cfg.Run.PollIntervalMs = def.Run.PollIntervalMs
	}
	if cfg.Run.PollTimeoutSecond <= 0 {
		cfg.Run.PollTimeoutSecond = def.Run.PollTimeoutSecond
	}
	if cfg.Run.RequestTimeoutSecond <= 0 {
		cfg.Run.RequestTimeoutSecond = def.Run.RequestTimeoutSecond
	}
	if cfg.Run.DoneStatus == "" {
		cfg.Run.DoneStatus = def.Run.DoneStatus
	}
	if cfg.Run.MaxConcurrent <= 0 {
		cfg.Run.MaxConcurrent = def.Run.MaxConcurrent
	}
	if cfg.Corpus.NoiseMarker == "" {
		cfg.Corpus.NoiseMarker = def.Corpus.NoiseMarker
	}
	if cfg.Corpus.ParagraphMarker == "" {
		cfg.Corpus.ParagraphMarker = def.Corpus.ParagraphMarker
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = def.Ledger.Path
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (r RunConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

func (r RunConfig) PollTimeout() time.Duration {
	return time.Duration(r.PollTimeoutSecond) * time.Second
}

func (r RunConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutSecond) * time.Second
}

func (r RunConfig) StatusPolicy() jobs.StatusPolicy {
	return jobs.StatusPolicy{Done: r.DoneStatus, Failed: append([]string(nil), r.FailedStatuses...)}
}

func (c CorpusConfig) Markers() corpus.Markers {
	return corpus.Markers{Noise: c.NoiseMarker, ParagraphTitle: c.ParagraphMarker}
}

func (c CorpusConfig) Classifier() corpus.Classifier {
	return corpus.NewClassifier(c.VideoCodes, c.AudioCodes)
}
