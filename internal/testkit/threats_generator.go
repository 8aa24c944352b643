package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"cyberguard/domain/dataset"
)

var (
	countries  = []string{"Australia", "Brazil", "China", "France", "Germany", "India", "Japan", "Russia", "UK", "USA"}
	attacks    = []string{"DDoS", "Malware", "Man-in-the-Middle", "Phishing", "Ransomware", "SQL Injection"}
	industries = []string{"Banking", "Education", "Government", "Healthcare", "IT", "Retail", "Telecommunications"}
	sources    = []string{"Hacker Group", "Insider", "Nation-state", "Unknown"}
	vulns      = []string{"Social Engineering", "Unpatched Software", "Weak Passwords", "Zero-day"}
	defenses   = []string{"AI-based Detection", "Antivirus", "Encryption", "Firewall", "VPN"}
)

// ThreatsGeneratorConfig configures the global threat generator
type ThreatsGeneratorConfig struct {
	Rows        int     `json:"rows"`
	StartYear   int     `json:"start_year"`
	EndYear     int     `json:"end_year"`
	MissingRate float64 `json:"missing_rate"` // share of financial-loss cells blanked
	Seed        int64   `json:"seed"`
}

// DefaultThreatsConfig mirrors the shape of the real incident log:
// 3000 incidents spread evenly over 2015-2024.
func DefaultThreatsConfig() ThreatsGeneratorConfig {
	return ThreatsGeneratorConfig{
		Rows:      3000,
		StartYear: 2015,
		EndYear:   2024,
		Seed:      42,
	}
}

// ThreatsGenerator produces synthetic global incident tables
type ThreatsGenerator struct {
	config ThreatsGeneratorConfig
	rng    *rand.Rand
}

// NewThreatsGenerator creates a seeded generator
func NewThreatsGenerator(config ThreatsGeneratorConfig) *ThreatsGenerator {
	return &ThreatsGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the table. Years are assigned round-robin so every
// year holds the same number of incidents when Rows divides evenly.
// Financial loss grows with affected users and resolution time.
func (g *ThreatsGenerator) Generate() (*dataset.Table, error) {
	n := g.config.Rows
	span := g.config.EndYear - g.config.StartYear + 1
	if span < 1 {
		return nil, fmt.Errorf("invalid year span %d-%d", g.config.StartYear, g.config.EndYear)
	}

	country := make([]string, n)
	year := make([]float64, n)
	attack := make([]string, n)
	industry := make([]string, n)
	loss := make([]float64, n)
	users := make([]float64, n)
	source := make([]string, n)
	vuln := make([]string, n)
	defense := make([]string, n)
	hours := make([]float64, n)

	for i := 0; i < n; i++ {
		country[i] = g.pick(countries)
		year[i] = float64(g.config.StartYear + i%span)
		attack[i] = g.pick(attacks)
		industry[i] = g.pick(industries)
		source[i] = g.pick(sources)
		vuln[i] = g.pick(vulns)
		defense[i] = g.pick(defenses)

		users[i] = math.Round(500 + g.rng.Float64()*999500)
		hours[i] = math.Round(1 + g.rng.Float64()*71)
		loss[i] = 0.5 + users[i]/20000 + hours[i]*0.3 + g.rng.NormFloat64()*3
		if loss[i] < 0.5 {
			loss[i] = 0.5
		}
		if g.rng.Float64() < g.config.MissingRate {
			loss[i] = math.NaN()
		}
	}

	return dataset.NewTable(string(dataset.GlobalThreats), dataset.GlobalThreatsSchema,
		dataset.NewCategoricalColumn(dataset.ColCountry, country),
		dataset.NewNumericColumn(dataset.ColYear, year),
		dataset.NewCategoricalColumn(dataset.ColAttackType, attack),
		dataset.NewCategoricalColumn(dataset.ColTargetIndustry, industry),
		dataset.NewNumericColumn(dataset.ColFinancialLoss, loss),
		dataset.NewNumericColumn(dataset.ColAffectedUsers, users),
		dataset.NewCategoricalColumn(dataset.ColAttackSource, source),
		dataset.NewCategoricalColumn(dataset.ColVulnerability, vuln),
		dataset.NewCategoricalColumn(dataset.ColDefenseMechanism, defense),
		dataset.NewNumericColumn(dataset.ColResolutionHours, hours),
	)
}

func (g *ThreatsGenerator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}
