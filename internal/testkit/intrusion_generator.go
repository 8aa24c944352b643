package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"cyberguard/domain/dataset"
)

var (
	protocols   = []string{"ICMP", "TCP", "UDP"}
	encryptions = []string{"AES", "DES", ""}
	browsers    = []string{"Chrome", "Edge", "Firefox", "Safari", "Unknown"}
)

// IntrusionGeneratorConfig configures the network session generator
type IntrusionGeneratorConfig struct {
	Rows int   `json:"rows"`
	Seed int64 `json:"seed"`
}

// DefaultIntrusionConfig returns a mid-sized traffic log
func DefaultIntrusionConfig() IntrusionGeneratorConfig {
	return IntrusionGeneratorConfig{Rows: 2000, Seed: 42}
}

// IntrusionGenerator produces synthetic intrusion detection tables
type IntrusionGenerator struct {
	config IntrusionGeneratorConfig
	rng    *rand.Rand
}

// NewIntrusionGenerator creates a seeded generator
func NewIntrusionGenerator(config IntrusionGeneratorConfig) *IntrusionGenerator {
	return &IntrusionGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the table. Attack probability rises with failed logins
// and falls with IP reputation, so both separate the classes.
func (g *IntrusionGenerator) Generate() (*dataset.Table, error) {
	n := g.config.Rows
	if n < 0 {
		return nil, fmt.Errorf("invalid row count %d", n)
	}

	sid := make([]string, n)
	packet := make([]float64, n)
	protocol := make([]string, n)
	logins := make([]float64, n)
	duration := make([]float64, n)
	encryption := make([]string, n)
	reputation := make([]float64, n)
	failed := make([]float64, n)
	browser := make([]string, n)
	unusual := make([]float64, n)
	detected := make([]float64, n)

	for i := 0; i < n; i++ {
		sid[i] = fmt.Sprintf("SID_%05d", i+1)
		packet[i] = math.Round(64 + g.rng.Float64()*1436)
		protocol[i] = protocols[g.rng.Intn(len(protocols))]
		logins[i] = float64(1 + g.rng.Intn(10))
		duration[i] = math.Round(g.rng.ExpFloat64()*800*100) / 100
		encryption[i] = encryptions[g.rng.Intn(len(encryptions))]
		reputation[i] = math.Round(g.rng.Float64()*1000) / 1000
		failed[i] = float64(g.rng.Intn(6))
		browser[i] = browsers[g.rng.Intn(len(browsers))]
		if g.rng.Float64() < 0.15 {
			unusual[i] = 1
		}

		score := -1.5 + 0.8*failed[i] - 2.5*reputation[i] + 0.8*unusual[i]
		if g.rng.Float64() < 1/(1+math.Exp(-score)) {
			detected[i] = 1
		}
	}

	return dataset.NewTable(string(dataset.IntrusionEvents), dataset.IntrusionEventsSchema,
		dataset.NewCategoricalColumn(dataset.ColSessionID, sid),
		dataset.NewNumericColumn(dataset.ColPacketSize, packet),
		dataset.NewCategoricalColumn(dataset.ColProtocolType, protocol),
		dataset.NewNumericColumn(dataset.ColLoginAttempts, logins),
		dataset.NewNumericColumn(dataset.ColSessionDuration, duration),
		dataset.NewCategoricalColumn(dataset.ColEncryptionUsed, encryption),
		dataset.NewNumericColumn(dataset.ColIPReputation, reputation),
		dataset.NewNumericColumn(dataset.ColFailedLogins, failed),
		dataset.NewCategoricalColumn(dataset.ColBrowserType, browser),
		dataset.NewNumericColumn(dataset.ColUnusualTimeAccess, unusual),
		dataset.NewNumericColumn(dataset.ColAttackDetected, detected),
	)
}
