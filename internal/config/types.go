package config

// InfobloxConfig holds connection settings for the NIOS WAPI record source.
//
// Note: Password is a secret; it is normally supplied via the
// INFOBLOX_PASSWORD environment variable (or a .env file) rather than the
// config file, and is never echoed by the API.
type InfobloxConfig struct {
	Host        string `yaml:"host"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password,omitempty"`
	WAPIVersion string `yaml:"wapi_version"` // discovered from the appliance when empty
	SkipVerify  bool   `yaml:"skip_verify"`  // skip TLS certificate verification
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

// AuditConfig controls the audit pass itself.
type AuditConfig struct {
	View       string `yaml:"view"`        // DNS view to audit
	RangesFile string `yaml:"ranges_file"` // allow-list path
	Source     string `yaml:"source"`      // "infoblox" or "zonefile"
	ZoneFile   string `yaml:"zone_file"`   // master file path when source=zonefile
	Workers    int    `yaml:"workers"`     // concurrent chain resolutions, 0 = auto
	ShowAll    bool   `yaml:"show_all"`    // report compliant findings too
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level       string            `yaml:"level"`
	JSON        bool              `yaml:"json"`
	IncludePID  bool              `yaml:"include_pid"`
	ExtraFields map[string]string `yaml:"extra_fields,omitempty"`
}

// StoreConfig controls the audit-history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// APIConfig contains results API settings.
//
// Note: APIKey is treated as a secret and is not returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// Config is the root configuration structure.
type Config struct {
	Infoblox InfobloxConfig `yaml:"infoblox"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	API      APIConfig      `yaml:"api"`
}
