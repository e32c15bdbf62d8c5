package config

import (
	"fmt"
	"os"
	"strconv"

	"mt5-gateway/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file. Terminal
// credentials may be overridden from the environment (or a .env file) so
// secrets can stay out of the YAML.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnvOverrides()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.WS.IntervalSeconds <= 0 {
		c.WS.IntervalSeconds = 5
	}
	if c.WS.FetchWorkers <= 0 {
		c.WS.FetchWorkers = 4
	}
	if c.Terminal.ConnectTimeoutSeconds <= 0 {
		c.Terminal.ConnectTimeoutSeconds = 5
	}
	if c.Terminal.OpsPerSecond <= 0 {
		c.Terminal.OpsPerSecond = 20
	}
	if c.Storage.RetentionDays <= 0 {
		c.Storage.RetentionDays = 30
	}
}

// -----------------------------------------------------------------------------

// applyEnvOverrides pulls terminal credentials from the environment.
// Ignore the godotenv error so the app still starts when .env is missing.
func (c *Config) applyEnvOverrides() {
	_ = godotenv.Load()

	if v := os.Getenv("MT5_LOGIN"); v != "" {
		if login, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Accounts.Live.Login = login
		}
	}
	if v := os.Getenv("MT5_PASSWORD"); v != "" {
		c.Accounts.Live.Password = v
	}
	if v := os.Getenv("MT5_SERVER"); v != "" {
		c.Accounts.Live.Server = v
	}
	if v := os.Getenv("MT5_BRIDGE_ADDR"); v != "" {
		c.Terminal.BridgeAddr = v
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if !c.Terminal.UseSim && c.Terminal.BridgeAddr == "" {
		return fmt.Errorf("terminal bridge address cannot be empty unless use_sim is set")
	}

	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	if c.WS.IntervalSeconds <= 0 {
		return fmt.Errorf("ws interval must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Account selects the live account or the first demo account. The simulated
// terminal accepts any account, so demo may be empty in sim mode.
func (c *Config) Account(useLive bool) (models.MAccountConfig, error) {
	if useLive {
		if c.Accounts.Live.Login == 0 {
			return models.MAccountConfig{}, fmt.Errorf("live account requested but not configured")
		}
		return c.Accounts.Live, nil
	}

	if len(c.Accounts.Demo) == 0 {
		if c.Terminal.UseSim {
			return models.MAccountConfig{Login: 1, Server: "sim"}, nil
		}
		return models.MAccountConfig{}, fmt.Errorf("no demo accounts configured")
	}
	return c.Accounts.Demo[0], nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
