package filter

import (
	"fmt"
	"strings"

	"cyberguard/domain/core"
	"cyberguard/domain/filter"
)

// TriState is a yes/no/both choice over a binary column
type TriState string

const (
	TriBoth TriState = "both"
	TriYes  TriState = "yes"
	TriNo   TriState = "no"
)

// ParseTriState accepts both|yes|no and the classification labels
// All|Attack|Normal.
func ParseTriState(s string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return TriBoth, nil
	case "yes", "attack", "1", "true":
		return TriYes, nil
	case "no", "normal", "0", "false":
		return TriNo, nil
	}
	return TriBoth, core.NewInvalidParameterError("attack_detected", fmt.Sprintf("unknown choice %q", s))
}

// Filter maps the choice onto a page filter: both is unrestricted, yes is
// the interval [1, 1] and no is [0, 0].
func (t TriState) Filter() filter.PageFilter {
	switch t {
	case TriYes:
		return filter.Interval(1, 1)
	case TriNo:
		return filter.Interval(0, 0)
	}
	return filter.Categorical()
}
