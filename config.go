package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 8080
	defaultTickIntervalMS  = 1000
	defaultWriteTimeoutMS  = 5000
	defaultShutdownTimeout = 10 * time.Second
	defaultEventName       = "position_update"
	defaultStaticDir       = "./static"
)

type ServerConfig struct {
	Port           int      `yaml:"port" validate:"min=1,max=65535"`
	StaticDir      string   `yaml:"staticDir"`
	AllowedOrigins []string `yaml:"allowedOrigins" validate:"dive,required"`
}

type StreamConfig struct {
	EventName           string `yaml:"eventName" validate:"required"`
	TickIntervalMS      int    `yaml:"tickIntervalMS" validate:"gt=0"`
	WriteTimeoutMS      int    `yaml:"writeTimeoutMS" validate:"gte=0"`
	MaxConcurrentWrites int    `yaml:"maxConcurrentWrites" validate:"gte=0"`
	WrapCoordinates     bool   `yaml:"wrapCoordinates"`
}

// EntityConfig describes one simulated vehicle.
type EntityConfig struct {
	ID             string  `yaml:"id" validate:"required"`
	SeedLatitude   float64 `yaml:"seedLatitude" validate:"latitude"`
	SeedLongitude  float64 `yaml:"seedLongitude" validate:"longitude"`
	DeltaLatitude  float64 `yaml:"deltaLatitude"`
	DeltaLongitude float64 `yaml:"deltaLongitude"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB" validate:"gte=0"`
	MaxBackups int    `yaml:"maxBackups" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
	Entities []EntityConfig `yaml:"entities" validate:"min=1,unique=ID,dive"`
	Log      LogConfig      `yaml:"log"`
}

func defaultEntity() EntityConfig {
	return EntityConfig{
		ID:             "vehicle-1",
		SeedLatitude:   28.6315,
		SeedLongitude:  77.2167,
		DeltaLatitude:  0.0001,
		DeltaLongitude: 0.0001,
	}
}

// LoadConfig reads and validates the YAML configuration at path.
// An empty path yields the built-in defaults.
func LoadConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = defaultStaticDir
	}
	if c.Stream.EventName == "" {
		c.Stream.EventName = defaultEventName
	}
	if c.Stream.TickIntervalMS == 0 {
		c.Stream.TickIntervalMS = defaultTickIntervalMS
	}
	if c.Stream.WriteTimeoutMS == 0 {
		c.Stream.WriteTimeoutMS = defaultWriteTimeoutMS
	}
	if len(c.Entities) == 0 {
		c.Entities = []EntityConfig{defaultEntity()}
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
}

func (c AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c StreamConfig) tickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c StreamConfig) writeTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// newGenerators creates and seeds one generator per configured entity.
func newGenerators(cfg AppConfig) ([]*Generator, error) {
	var opts []GeneratorOption
	if cfg.Stream.WrapCoordinates {
		opts = append(opts, WithWrap())
	}
	out := make([]*Generator, 0, len(cfg.Entities))
	for _, e := range cfg.Entities {
		g := NewGenerator(e.ID, Delta{Latitude: e.DeltaLatitude, Longitude: e.DeltaLongitude}, opts...)
		if err := g.Initialize(e.SeedLatitude, e.SeedLongitude); err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.ID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (c AppConfig) entityIDs() []string {
	ids := make([]string, 0, len(c.Entities))
	for _, e := range c.Entities {
		ids = append(ids, e.ID)
	}
	return ids
}
