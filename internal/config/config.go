// Package config loads gridsim settings from YAML with GRIDSIM_
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/talgya/gridworld/internal/agents"
	"github.com/talgya/gridworld/internal/calendar"
	"github.com/talgya/gridworld/internal/economy"
	"github.com/talgya/gridworld/internal/telemetry"
	"github.com/talgya/gridworld/internal/units"
)

// EnvPrefix prefixes every environment override, e.g. GRIDSIM_API_PORT.
const EnvPrefix = "GRIDSIM"

// Config is the complete process configuration.
type Config struct {
	SpeedIndex int               `mapstructure:"speed_index" yaml:"speed_index"`
	Seed       int64             `mapstructure:"seed"        yaml:"seed"` // 0 draws a fresh seed
	Log        LogConfig         `mapstructure:"log"         yaml:"log"`
	API        APIConfig         `mapstructure:"api"         yaml:"api"`
	Journal    JournalConfig     `mapstructure:"journal"     yaml:"journal"`
	Sink       SinkConfig        `mapstructure:"sink"        yaml:"sink"`
	Plant      PlantSettings     `mapstructure:"plant"       yaml:"plant"`
	Factories  []FactorySettings `mapstructure:"factories"   yaml:"factories"`
}

// LogConfig holds process logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error", "critical"
}

// APIConfig holds the presentation server settings. An empty AdminKey
// disables every intent endpoint.
type APIConfig struct {
	Port        int      `mapstructure:"port"         yaml:"port"`
	AdminKey    string   `mapstructure:"admin_key"    yaml:"admin_key"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// JournalConfig locates the sqlite journal. An empty path disables it.
type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SinkConfig sizes the simulation log sink.
type SinkConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// PlantSettings are the power plant's starting figures.
type PlantSettings struct {
	Fuel               int64   `mapstructure:"fuel"                yaml:"fuel"`
	FuelCapacity       int64   `mapstructure:"fuel_capacity"       yaml:"fuel_capacity"`
	ProductionCapacity int64   `mapstructure:"production_capacity" yaml:"production_capacity"`
	Balance            float64 `mapstructure:"balance"             yaml:"balance"`
}

// FactorySettings describe one factory as written in YAML.
type FactorySettings struct {
	Name        string   `mapstructure:"name"         yaml:"name"`
	Industry    string   `mapstructure:"industry"     yaml:"industry"`
	Balance     float64  `mapstructure:"balance"      yaml:"balance"`
	Products    []string `mapstructure:"products"     yaml:"products"`
	SolarPanels int      `mapstructure:"solar_panels" yaml:"solar_panels"`
}

// Load reads configuration from path, or from gridsim.yaml in the working
// directory or /etc/gridsim when path is empty. A missing default file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gridsim")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gridsim")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("speed_index", calendar.DefaultSpeed)
	v.SetDefault("seed", 0)
	v.SetDefault("log.level", "info")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.admin_key", "")
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("journal.path", "")
	v.SetDefault("sink.capacity", telemetry.DefaultCapacity)

	v.SetDefault("plant.fuel", agents.DefaultFuel)
	v.SetDefault("plant.fuel_capacity", agents.DefaultFuelCapacity)
	v.SetDefault("plant.production_capacity", int64(agents.DefaultProductionCapacity))
	v.SetDefault("plant.balance", agents.DefaultPlantBalance)
}

// Validate checks ranges and resolves every factory's industry and
// products against the catalog.
func (c *Config) Validate() error {
	if c.SpeedIndex < 0 || c.SpeedIndex >= calendar.SpeedLevels {
		return fmt.Errorf("speed_index %d out of range 0..%d", c.SpeedIndex, calendar.SpeedLevels-1)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if c.Sink.Capacity < 0 {
		return fmt.Errorf("sink.capacity must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.FactoryConfigs(); err != nil {
		return err
	}
	return nil
}

// PlantConfig converts the plant settings.
func (c *Config) PlantConfig() agents.PlantConfig {
	return agents.PlantConfig{
		Fuel:               c.Plant.Fuel,
		FuelCapacity:       c.Plant.FuelCapacity,
		ProductionCapacity: units.EnergyUnit(c.Plant.ProductionCapacity),
		Balance:            c.Plant.Balance,
	}
}

// FactoryConfigs converts and validates the factory roster. An empty
// roster yields nil, which selects the built-in one.
func (c *Config) FactoryConfigs() ([]agents.FactoryConfig, error) {
	if len(c.Factories) == 0 {
		return nil, nil
	}
	out := make([]agents.FactoryConfig, 0, len(c.Factories))
	for i, f := range c.Factories {
		industry, err := economy.ParseIndustry(strings.ToLower(f.Industry))
		if err != nil {
			return nil, fmt.Errorf("factories[%d]: %w", i, err)
		}
		fc := agents.FactoryConfig{
			Name:        f.Name,
			Industry:    industry,
			Balance:     f.Balance,
			SolarPanels: f.SolarPanels,
		}
		for _, p := range f.Products {
			fc.Products = append(fc.Products, economy.ProductID(p))
		}
		if err := fc.Validate(); err != nil {
			return nil, fmt.Errorf("factories[%d]: %w", i, err)
		}
		out = append(out, fc)
	}
	return out, nil
}

// ParseLevel maps a level name onto slog, including "critical".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return telemetry.LevelCritical, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
