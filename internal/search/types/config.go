package types

// SourceConfig represents the configuration of one search backend
type SourceConfig struct {
	ID   SourceID `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host"`

	// Optional settings
	Timeout    int `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // seconds
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"` // default: 2

	// MaxCandidates bounds the early-exit threshold while iterating
	// query variations. Zero means the source's own default.
	MaxCandidates int `json:"max_candidates,omitempty" yaml:"max_candidates,omitempty"`
}

// Validate validates the source configuration
func (c *SourceConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidSourceID
	}
	if c.Name == "" {
		return ErrInvalidSourceName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}
	return nil
}
