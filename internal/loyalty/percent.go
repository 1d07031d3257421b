package loyalty

import "github.com/dinehall-loyalty-service/internal/config"

// PercentProvider supplies the accrual percentage in force at call time.
// The value actually used is always persisted on the ledger entry, so
// later configuration changes never corrupt history.
type PercentProvider interface {
	AccrualPercent() int
}

// ConfigPercentProvider reads the percentage from service configuration
type ConfigPercentProvider struct {
	cfg *config.LoyaltyConfig
}

// NewConfigPercentProvider creates a configuration-backed percent provider
func NewConfigPercentProvider(cfg *config.LoyaltyConfig) *ConfigPercentProvider {
	return &ConfigPercentProvider{cfg: cfg}
}

// AccrualPercent returns the configured accrual percentage
func (p *ConfigPercentProvider) AccrualPercent() int {
	return p.cfg.AccrualPercent
}
