package dataset

// Kind identifies one of the two datasets the dashboard is built on
type Kind string

const (
	GlobalThreats   Kind = "global_threats"
	IntrusionEvents Kind = "intrusion_events"
)

// Kinds lists every known dataset
func Kinds() []Kind { return []Kind{GlobalThreats, IntrusionEvents} }

// Global threat landscape columns
const (
	ColCountry          = "Country"
	ColYear             = "Year"
	ColAttackType       = "Attack Type"
	ColTargetIndustry   = "Target Industry"
	ColFinancialLoss    = "Financial Loss (in Million $)"
	ColAffectedUsers    = "Number of Affected Users"
	ColAttackSource     = "Attack Source"
	ColVulnerability    = "Security Vulnerability Type"
	ColDefenseMechanism = "Defense Mechanism Used"
	ColResolutionHours  = "Incident Resolution Time (in Hours)"
)

// Intrusion detection columns
const (
	ColSessionID         = "session_id"
	ColPacketSize        = "network_packet_size"
	ColProtocolType      = "protocol_type"
	ColLoginAttempts     = "login_attempts"
	ColSessionDuration   = "session_duration"
	ColEncryptionUsed    = "encryption_used"
	ColIPReputation      = "ip_reputation_score"
	ColFailedLogins      = "failed_logins"
	ColBrowserType       = "browser_type"
	ColUnusualTimeAccess = "unusual_time_access"
	ColAttackDetected    = "attack_detected"
)

// Field declares one column of a dataset
type Field struct {
	Name     string
	Type     ColumnType
	Temporal bool
	Binary   bool
}

// Schema is the typed column declaration for a dataset, checked once at load
type Schema struct {
	Kind   Kind
	Fields []Field
}

// Field looks up a declared field by name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Temporal returns the name of the year column, if the dataset has one
func (s *Schema) Temporal() (string, bool) {
	for _, f := range s.Fields {
		if f.Temporal {
			return f.Name, true
		}
	}
	return "", false
}

// Names lists declared column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

var GlobalThreatsSchema = &Schema{
	Kind: GlobalThreats,
	Fields: []Field{
		{Name: ColCountry, Type: Categorical},
		{Name: ColYear, Type: Numeric, Temporal: true},
		{Name: ColAttackType, Type: Categorical},
		{Name: ColTargetIndustry, Type: Categorical},
		{Name: ColFinancialLoss, Type: Numeric},
		{Name: ColAffectedUsers, Type: Numeric},
		{Name: ColAttackSource, Type: Categorical},
		{Name: ColVulnerability, Type: Categorical},
		{Name: ColDefenseMechanism, Type: Categorical},
		{Name: ColResolutionHours, Type: Numeric},
	},
}

var IntrusionEventsSchema = &Schema{
	Kind: IntrusionEvents,
	Fields: []Field{
		{Name: ColSessionID, Type: Categorical},
		{Name: ColPacketSize, Type: Numeric},
		{Name: ColProtocolType, Type: Categorical},
		{Name: ColLoginAttempts, Type: Numeric},
		{Name: ColSessionDuration, Type: Numeric},
		{Name: ColEncryptionUsed, Type: Categorical},
		{Name: ColIPReputation, Type: Numeric},
		{Name: ColFailedLogins, Type: Numeric},
		{Name: ColBrowserType, Type: Categorical},
		{Name: ColUnusualTimeAccess, Type: Numeric, Binary: true},
		{Name: ColAttackDetected, Type: Numeric, Binary: true},
	},
}

// SchemaFor returns the declared schema of a dataset kind
func SchemaFor(kind Kind) (*Schema, bool) {
	switch kind {
	case GlobalThreats:
		return GlobalThreatsSchema, true
	case IntrusionEvents:
		return IntrusionEventsSchema, true
	}
	return nil, false
}
