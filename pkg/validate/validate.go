package validate

import (
	"math"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/resolve"
)

const (
	// DefaultTol applies when a sink declares a ratio without a tolerance
	DefaultTol = 0.01
	// driftTol is the largest ratio-sum drift reported as a warning
	driftTol = 0.01
	epsilon  = 1e-9
)

// Expect is a sink's declared share of its group's output
type Expect struct {
	Ratio *float64 `toml:"ratio,omitempty" json:"ratio,omitempty"`
	Tol   *float64 `toml:"tol,omitempty" json:"tol,omitempty"`
	Min   *float64 `toml:"min,omitempty" json:"min,omitempty"`
	Max   *float64 `toml:"max,omitempty" json:"max,omitempty"`
}

// Tolerance returns tol or DefaultTol
func (e *Expect) Tolerance() float64 {
	if e == nil || e.Tol == nil {
		return DefaultTol
	}
	return *e.Tol
}

// Sink is one member of a sink group. Either Spec or Err is set.
type Sink struct {
	Name    string
	Connect string
	Spec    *resolve.SinkSpec
	Err     error
	Expect  *Expect
}

// Group is a named set of sinks loaded from one definition file
type Group struct {
	Name  string
	Scope string
	File  string
	Sinks []Sink
}

// SinkStat is the observed line count of one sink
type SinkStat struct {
	Group string `json:"group"`
	Sink  string `json:"sink"`
	Path  string `json:"path"`
	Lines uint64 `json:"lines"`
	Found bool   `json:"found"`
}

// Stats holds observed line counts for a set of sinks
type Stats struct {
	Total uint64     `json:"total"`
	Items []SinkStat `json:"items"`
}

// Lookup finds the stat for a group/sink pair
func (s *Stats) Lookup(group, sink string) (SinkStat, bool) {
	if s == nil {
		return SinkStat{}, false
	}
	for _, it := range s.Items {
		if it.Group == group && it.Sink == sink {
			return it, true
		}
	}
	return SinkStat{}, false
}

// GroupTotal sums the lines of the group's found sinks
func (s *Stats) GroupTotal(group string) uint64 {
	if s == nil {
		return 0
	}
	var total uint64
	for _, it := range s.Items {
		if it.Group == group && it.Found {
			total += it.Lines
		}
	}
	return total
}

// Validate dispatches on stats availability: with stats the observed line
// counts are checked as well, without them only configuration is.
func Validate(groups []Group, stats *Stats, inputOverride *uint64) Report {
	if stats != nil {
		return ValidateWithStats(groups, stats, inputOverride)
	}
	return ValidateGroups(groups, inputOverride)
}

// ValidateGroups checks sink groups structurally from configuration alone.
// An inputOverride of 0 is checked against the declared ratios as a group
// total would be.
func ValidateGroups(groups []Group, inputOverride *uint64) Report {
	var r Report
	for _, g := range groups {
		validateGroup(&r, g)
		if inputOverride == nil || *inputOverride != 0 {
			continue
		}
		for _, s := range g.Sinks {
			if s.Err == nil {
				checkZeroTotal(&r, g.Name, s)
			}
		}
	}
	return r
}

// checkZeroTotal reports a sink expecting a share of an empty group
func checkZeroTotal(r *Report, group string, s Sink) {
	if e := s.Expect; e != nil && e.Ratio != nil && *e.Ratio > 0 {
		r.add(SeverityPanic, group, s.Name, "group total is 0 but sink expects ratio %g", *e.Ratio)
	}
}

// ValidateWithStats runs the configuration checks and then compares each
// sink's share of the group total with its expectation. The group total is
// inputOverride when given, else the sum of the group's observed lines.
func ValidateWithStats(groups []Group, stats *Stats, inputOverride *uint64) Report {
	var r Report
	for _, g := range groups {
		validateGroup(&r, g)

		total := stats.GroupTotal(g.Name)
		if inputOverride != nil {
			total = *inputOverride
		}
		for _, s := range g.Sinks {
			if s.Err != nil {
				continue
			}
			validateSinkStats(&r, g.Name, s, stats, total)
		}
	}
	return r
}

func validateGroup(r *Report, g Group) {
	if len(g.Sinks) == 0 {
		r.add(SeverityWarn, g.Name, "", "group has no sinks (%s)", g.File)
		return
	}

	var (
		sum       float64
		withRatio int
		bound     int
	)
	for _, s := range g.Sinks {
		if s.Err != nil {
			r.add(SeverityError, g.Name, s.Name, "sink references connector '%s' that cannot be resolved: %s",
				s.Connect, errMessage(s.Err))
			continue
		}
		bound++
		if s.Expect == nil {
			continue
		}
		validateExpect(r, g.Name, s)
		if s.Expect.Ratio != nil {
			withRatio++
			sum += *s.Expect.Ratio
		}
	}

	switch {
	case withRatio > 0 && withRatio == bound:
		drift := math.Abs(sum - 1)
		if drift <= epsilon {
			return
		}
		if drift <= driftTol+epsilon {
			r.add(SeverityWarn, g.Name, "", "ratio sum %.4f drifts from 1.0", sum)
		} else {
			r.add(SeverityError, g.Name, "", "ratio sum %.4f must be 1.0", sum)
		}
	case sum > 1+epsilon:
		r.add(SeverityError, g.Name, "", "ratio sum %.4f exceeds 1.0", sum)
	}
}

func validateExpect(r *Report, group string, s Sink) {
	e := s.Expect
	if e.Ratio != nil && !inUnit(*e.Ratio) {
		r.add(SeverityError, group, s.Name, "ratio %g out of range [0, 1]", *e.Ratio)
	}
	if e.Tol != nil && *e.Tol < 0 {
		r.add(SeverityError, group, s.Name, "tol %g cannot be negative", *e.Tol)
	}
	if e.Min != nil && !inUnit(*e.Min) {
		r.add(SeverityError, group, s.Name, "min %g out of range [0, 1]", *e.Min)
	}
	if e.Max != nil && !inUnit(*e.Max) {
		r.add(SeverityError, group, s.Name, "max %g out of range [0, 1]", *e.Max)
	}
	if e.Min != nil && e.Max != nil && *e.Min > *e.Max {
		r.add(SeverityPanic, group, s.Name, "min %g is greater than max %g", *e.Min, *e.Max)
	}
}

func validateSinkStats(r *Report, group string, s Sink, stats *Stats, total uint64) {
	e := s.Expect
	if total == 0 {
		checkZeroTotal(r, group, s)
		return
	}

	st, ok := stats.Lookup(group, s.Name)
	if !ok || !st.Found {
		r.add(SeverityWarn, group, s.Name, "no stats for sink (output not found)")
		return
	}
	if e == nil {
		return
	}

	actual := float64(st.Lines) / float64(total)
	if e.Ratio != nil {
		if math.Abs(actual-*e.Ratio) > e.Tolerance()+epsilon {
			r.add(SeverityError, group, s.Name, "actual ratio %.4f deviates from expected %.4f beyond tol %g",
				actual, *e.Ratio, e.Tolerance())
		}
	}
	if e.Min != nil && actual+epsilon < *e.Min {
		r.add(SeverityError, group, s.Name, "actual ratio %.4f below min %g", actual, *e.Min)
	}
	if e.Max != nil && actual > *e.Max+epsilon {
		r.add(SeverityError, group, s.Name, "actual ratio %.4f above max %g", actual, *e.Max)
	}
}

func inUnit(f float64) bool {
	return f >= 0 && f <= 1
}

func errMessage(err error) string {
	if e, ok := errors.As(err); ok {
		return e.Message
	}
	return err.Error()
}
