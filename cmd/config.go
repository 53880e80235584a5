package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"logistics/internal/adapters/out/database"
	"logistics/internal/core/application/usecases/commands"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/route"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	envPrefix    = "LOGI"
)

// Config is the process configuration, read from defaults, an optional yaml file and
// LOGI_* environment variables, in increasing priority.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	State      StateConfig      `mapstructure:"state"`
	World      WorldConfig      `mapstructure:"world"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

type SimulationConfig struct {
	// TickDuration is the simulated time one tick stands for.
	TickDuration time.Duration `mapstructure:"tick_duration" validate:"gt=0"`
	// TickInterval is the wall-clock time between ticks when serving.
	TickInterval   time.Duration `mapstructure:"tick_interval" validate:"gt=0"`
	StartTick      uint64        `mapstructure:"start_tick"`
	EconomyEnabled bool          `mapstructure:"economy_enabled"`
	Recording      bool          `mapstructure:"recording"`

	// NominalSpeed is the travel speed in world units per simulated second.
	NominalSpeed     float64       `mapstructure:"nominal_speed" validate:"gt=0"`
	ArrivalRadius    float64       `mapstructure:"arrival_radius" validate:"gte=0"`
	ArrivalWarnEvery time.Duration `mapstructure:"arrival_warn_every" validate:"gte=0"`

	// StatusReport is a cron schedule for the status log line; empty disables it.
	StatusReport string `mapstructure:"status_report"`
}

type PolicyConfig struct {
	InventoryTTL      uint64        `mapstructure:"inventory_ttl" validate:"min=1"`
	CapacityTTL       uint64        `mapstructure:"capacity_ttl" validate:"min=1"`
	ServiceTTL        uint64        `mapstructure:"service_ttl" validate:"min=1"`
	RestockThreshold  float64       `mapstructure:"restock_threshold" validate:"gt=0,lt=1,ltfield=RestockFillTarget"`
	RestockFillTarget float64       `mapstructure:"restock_fill_target" validate:"gt=0,lte=1"`
	RiskTolerance     float64       `mapstructure:"risk_tolerance" validate:"gte=0,lte=1"`
	RouteCacheTTL     time.Duration `mapstructure:"route_cache_ttl" validate:"gt=0"`
}

type StateConfig struct {
	Driver   string         `mapstructure:"driver" validate:"required,oneof=memory sqlite postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Pool     PoolConfig     `mapstructure:"pool"`
}

type SQLiteConfig struct {
	// Path of the database file; empty keeps the database in memory.
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	// URL takes precedence over the individual fields.
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
}

type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

type WorldConfig struct {
	// File is the scenario yaml; empty loads the built-in scenario.
	File string `mapstructure:"file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8082)

	v.SetDefault("simulation.tick_duration", time.Second)
	v.SetDefault("simulation.tick_interval", time.Second)
	v.SetDefault("simulation.start_tick", 0)
	v.SetDefault("simulation.economy_enabled", true)
	v.SetDefault("simulation.recording", true)
	v.SetDefault("simulation.nominal_speed", 10.0)
	v.SetDefault("simulation.arrival_radius", 0.0)
	v.SetDefault("simulation.arrival_warn_every", time.Minute)
	v.SetDefault("simulation.status_report", "@every 1m")

	v.SetDefault("policy.inventory_ttl", commands.DefaultInventoryTTL)
	v.SetDefault("policy.capacity_ttl", commands.DefaultInventoryTTL)
	v.SetDefault("policy.service_ttl", commands.DefaultInventoryTTL)
	v.SetDefault("policy.restock_threshold", 0.2)
	v.SetDefault("policy.restock_fill_target", 0.5)
	v.SetDefault("policy.risk_tolerance", 1.0)
	v.SetDefault("policy.route_cache_ttl", commands.DefaultRouteCacheTTL)

	v.SetDefault("state.driver", DriverMemory)
	v.SetDefault("state.sqlite.path", "")
	v.SetDefault("state.postgres.url", "")
	v.SetDefault("state.postgres.host", "localhost")
	v.SetDefault("state.postgres.port", 5432)
	v.SetDefault("state.postgres.user", "logistics")
	v.SetDefault("state.postgres.password", "")
	v.SetDefault("state.postgres.name", "logistics")
	v.SetDefault("state.postgres.sslmode", "disable")
	v.SetDefault("state.pool.max_open", 25)
	v.SetDefault("state.pool.max_idle", 5)
	v.SetDefault("state.pool.max_lifetime", 5*time.Minute)

	v.SetDefault("world.file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// LoadConfig reads the configuration. A missing config file is not an error when
// configPath is empty; an explicitly named file must exist.
func LoadConfig(configPath string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks struct tags and the postgres connection settings.
func (c Config) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(validateState, StateConfig{})

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Namespace(), e.Tag(), e.Value(),
			))
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return nil
}

func validateState(sl validator.StructLevel) {
	state, ok := sl.Current().Interface().(StateConfig)
	if !ok || state.Driver != database.DriverPostgres {
		return
	}
	if state.Postgres.URL == "" && (state.Postgres.Host == "" || state.Postgres.Name == "") {
		sl.ReportError(state.Postgres.Host, "Postgres", "Postgres", "postgres_dsn", "")
	}
}

// CommandPolicy converts the policy section into the pipeline tunables.
func (c Config) CommandPolicy() commands.Policy {
	p := c.Policy
	return commands.Policy{
		InventoryTTL:      p.InventoryTTL,
		CapacityTTL:       p.CapacityTTL,
		ServiceTTL:        p.ServiceTTL,
		RestockThreshold:  p.RestockThreshold,
		RestockFillTarget: p.RestockFillTarget,
		RouteProfile:      route.Profile{RiskTolerance: p.RiskTolerance},
		RouteCacheTTL:     max(kernel.TicksFor(p.RouteCacheTTL, c.Simulation.TickDuration), 1),
	}
}

// DatabaseConfig converts the state section for the persistent drivers.
func (c Config) DatabaseConfig() database.Config {
	s := c.State
	return database.Config{
		Driver:          s.Driver,
		URL:             s.Postgres.URL,
		Host:            s.Postgres.Host,
		Port:            s.Postgres.Port,
		User:            s.Postgres.User,
		Password:        s.Postgres.Password,
		Name:            s.Postgres.Name,
		SSLMode:         s.Postgres.SSLMode,
		Path:            s.SQLite.Path,
		MaxOpenConns:    s.Pool.MaxOpen,
		MaxIdleConns:    s.Pool.MaxIdle,
		ConnMaxLifetime: s.Pool.MaxLifetime,
	}
}

// Address is the HTTP listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
