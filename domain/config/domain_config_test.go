package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2lar-b2/orchestrator/domain/config"
)

func TestLoadDomainConfig(t *testing.T) {
	tests := []struct {
		name          string
		environment   string
		wantFast      int64
		wantRetryCeil int
	}{
		{name: "production", environment: "production", wantFast: 3000, wantRetryCeil: 5},
		{name: "development", environment: "development", wantFast: 30000, wantRetryCeil: 20},
		{name: "unknown falls back to default", environment: "staging", wantFast: 5000, wantRetryCeil: 10},
		{name: "empty falls back to default", environment: "", wantFast: 5000, wantRetryCeil: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.LoadDomainConfig(tt.environment)
			assert.Equal(t, tt.wantFast, cfg.FastStepTimeoutMs)
			assert.Equal(t, tt.wantRetryCeil, cfg.MaxRetriesCeiling)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestDomainConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.DomainConfig)
		wantErr bool
	}{
		{
			name:    "default config is valid",
			mutate:  func(*config.DomainConfig) {},
			wantErr: false,
		},
		{
			name: "zero fast timeout is invalid",
			mutate: func(c *config.DomainConfig) {
				c.FastStepTimeoutMs = 0
			},
			wantErr: true,
		},
		{
			name: "tiers out of order is invalid",
			mutate: func(c *config.DomainConfig) {
				c.FastStepTimeoutMs = 60000
			},
			wantErr: true,
		},
		{
			name: "non-positive MaxStepsPerWorkflow is invalid",
			mutate: func(c *config.DomainConfig) {
				c.MaxStepsPerWorkflow = 0
			},
			wantErr: true,
		},
		{
			name: "negative MaxRetriesCeiling is invalid",
			mutate: func(c *config.DomainConfig) {
				c.MaxRetriesCeiling = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultDomainConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
