package macro

import (
	"encoding/json"
	"fmt"
	"os"
)

// SyncConfig holds the tunable constants of the interlock protocol.
type SyncConfig struct {
	// OpportunisticSlack is the cycle backlog at which a pending
	// coprocessor block is executed eagerly even without an explicit
	// interlock. Default: 8 cycles, an empirically tuned value from the
	// original hardware reverse engineering; its derivation does not
	// generalize, so it stays configurable.
	OpportunisticSlack uint32 `json:"opportunistic_slack"`

	// BlockCycleEstimate is the main-CPU cycle estimate accrued per
	// translated instruction while building a block. Default: 1 cycle.
	BlockCycleEstimate uint32 `json:"block_cycle_estimate"`
}

// DefaultSyncConfig returns a SyncConfig with the tuned default values.
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		OpportunisticSlack: 8,
		BlockCycleEstimate: 1,
	}
}

// LoadConfig loads a SyncConfig from a JSON file.
func LoadConfig(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync config file: %w", err)
	}

	config := DefaultSyncConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse sync config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a SyncConfig to a JSON file.
func (c *SyncConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sync config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sync config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *SyncConfig) Validate() error {
	if c.OpportunisticSlack == 0 {
		return fmt.Errorf("opportunistic_slack must be > 0")
	}
	if c.BlockCycleEstimate == 0 {
		return fmt.Errorf("block_cycle_estimate must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the SyncConfig.
func (c *SyncConfig) Clone() *SyncConfig {
	return &SyncConfig{
		OpportunisticSlack: c.OpportunisticSlack,
		BlockCycleEstimate: c.BlockCycleEstimate,
	}
}
