package models

// MConfig Structure
type MConfig struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`

	Terminal MTerminalConfig `yaml:"terminal"`
	Accounts MAccountsConfig `yaml:"accounts"`
	Storage  MStorageConfig  `yaml:"storage"`
	WS       MWSConfig       `yaml:"ws"`
}

type MTerminalConfig struct {
	// Path of the terminal executable, passed through to the bridge.
	Path string `yaml:"path"`
	// BridgeAddr is the host:port of the MT5 bridge endpoint.
	BridgeAddr string `yaml:"bridge_addr"`
	// ConnectTimeoutSeconds bounds session open; individual terminal calls
	// carry no caller-side timeout.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	// OpsPerSecond caps the rate of terminal calls inside the session guard.
	OpsPerSecond float64 `yaml:"ops_per_second"`
	// UseSim switches to the in-process simulated terminal (no bridge needed).
	UseSim bool `yaml:"use_sim"`
}

type MAccountsConfig struct {
	Live MAccountConfig   `yaml:"live"`
	Demo []MAccountConfig `yaml:"demo"`
}

type MAccountConfig struct {
	Login    int64  `yaml:"login"`
	Password string `yaml:"password"`
	Server   string `yaml:"server"`
	Magic    int64  `yaml:"magic"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MWSConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	// FetchWorkers bounds how many terminal fetches the broadcaster keeps in
	// flight at once (they still serialize at the session guard).
	FetchWorkers int `yaml:"fetch_workers"`
}
