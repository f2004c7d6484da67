package config

import "time"

// Config holds authctl settings.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	NoColor            bool
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.NoColor = false
}

// LoadConfig layers defaults, the optional config file and flags, later
// sources winning.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
