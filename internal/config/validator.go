package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return fmt.Errorf("store config error: %v", err)
	}
	if err := c.validateKafka(); err != nil {
		return fmt.Errorf("kafka config error: %v", err)
	}
	if err := c.validateAPI(); err != nil {
		return fmt.Errorf("api config error: %v", err)
	}
	if err := c.validateAnalytics(); err != nil {
		return fmt.Errorf("analytics config error: %v", err)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.URI == "" {
		return fmt.Errorf("uri is required")
	}
	if _, err := url.Parse(c.Store.URI); err != nil {
		return fmt.Errorf("invalid uri format: %v", err)
	}
	if c.Store.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Store.MaxPoolSize <= 0 {
		return fmt.Errorf("max_pool_size must be positive")
	}
	return nil
}

func (c *Config) validateKafka() error {
	// The event bus is optional; brokers may be empty.
	for _, broker := range c.Kafka.Brokers {
		if !strings.Contains(broker, ":") {
			return fmt.Errorf("invalid broker format: %s (expected host:port)", broker)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.API.Port)
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	window, err := c.Analytics.Window()
	if err != nil {
		return err
	}
	if window.Close <= window.Open {
		return fmt.Errorf("workday_close must be after workday_open")
	}
	if len(window.Weekdays) == 0 {
		return fmt.Errorf("at least one workday is required")
	}
	return nil
}
