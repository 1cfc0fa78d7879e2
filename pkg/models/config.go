package models

// Config holds the non-secret defaults used to pre-fill a deploy. Passwords
// and service tokens are never part of it.
type Config struct {
	Snowflake Snowflake `yaml:"snowflake"`
	DbtCloud  DbtCloud  `yaml:"dbt_cloud"`
	Logging   Logging   `yaml:"logging,omitempty"`
}

type Snowflake struct {
	Account  string `yaml:"account"`
	Username string `yaml:"username"`
}

type DbtCloud struct {
	AccountID string `yaml:"account_id"`
	Host      string `yaml:"host"`
}

// Logging controls the structured log written to stderr with --verbose
type Logging struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
}

// IsEmpty reports whether no default has been set
func (c Config) IsEmpty() bool {
	return c.Snowflake == (Snowflake{}) && c.DbtCloud == (DbtCloud{})
}
