package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/engine"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/limiter"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/toolchain/detect"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "127.0.0.1:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// CacheConfig holds toolchain catalog cache settings.
type CacheConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

// DetectConfig holds toolchain discovery settings.
type DetectConfig struct {
	ProbeTimeout    time.Duration `yaml:"probeTimeout"`
	EnableSweep     bool          `yaml:"enableSweep"`
	SweepRoots      []string      `yaml:"sweepRoots"`
	SweepMaxDepth   int           `yaml:"sweepMaxDepth"`
	SweepMaxResults int           `yaml:"sweepMaxResults"`
}

// LimiterConfig holds resource enforcement settings.
type LimiterConfig struct {
	PollInterval   time.Duration `yaml:"pollInterval"`
	MinFreeMB      int64         `yaml:"minFreeMb"`
	OutputMaxBytes int64         `yaml:"outputMaxBytes"`
}

// EngineConfig holds execution engine settings.
type EngineConfig struct {
	WorkRoot        string        `yaml:"workRoot"`
	CompileWallTime time.Duration `yaml:"compileWallTime"`
	CompileMemoryMB int64         `yaml:"compileMemoryMb"`
}

// AppConfig holds runnerd config.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Cache   CacheConfig   `yaml:"cache"`
	Detect  DetectConfig  `yaml:"detect"`
	Limiter LimiterConfig `yaml:"limiter"`
	Engine  EngineConfig  `yaml:"engine"`
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed: %w", err)
		}
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = "stdout"
	}
}

func (c DetectConfig) toDetectConfig() detect.Config {
	return detect.Config{
		ProbeTimeout:    c.ProbeTimeout,
		EnableSweep:     c.EnableSweep,
		SweepRoots:      c.SweepRoots,
		SweepMaxDepth:   c.SweepMaxDepth,
		SweepMaxResults: c.SweepMaxResults,
	}
}

func (c LimiterConfig) toLimiterConfig() limiter.Config {
	return limiter.Config{
		PollInterval:   c.PollInterval,
		MinFreeMB:      c.MinFreeMB,
		OutputMaxBytes: c.OutputMaxBytes,
	}
}

func (c EngineConfig) toEngineConfig() engine.Config {
	return engine.Config{
		WorkRoot:        c.WorkRoot,
		CompileWallTime: c.CompileWallTime,
		CompileMemoryMB: c.CompileMemoryMB,
	}
}
