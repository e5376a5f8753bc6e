package config

import (
	"fmt"
	"strings"
)

// StoreConfig holds the location of the JSON-file record stores.
type StoreConfig struct {
	Dir string `koanf:"dir"`
}

// String returns a string representation of the store configuration.
func (c *StoreConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Store ---\n")
	b.WriteString(fmt.Sprintf("  dir: %s\n", c.Dir))
	return b.String()
}

func (c *StoreConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("store directory is not configured")
	}
	return nil
}
