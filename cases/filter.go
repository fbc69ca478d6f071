// Package cases holds the domain value types of the case explorer: the
// filter descriptor every query keys on, the record and page shapes returned
// by the list endpoint, and the aggregate shapes behind the dashboard
// panels.
package cases

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Dataset bounds and sentinels.
const (
	YearFloor = 1976
	YearCeil  = 2023

	// AgeCeil is the top of the known-age range; AgeUnknown is the
	// dataset's sentinel for an unrecorded victim age.
	AgeCeil    = 99
	AgeUnknown = 999
)

// Solved is the tri-state case-status filter.
type Solved int

const (
	SolvedAll Solved = iota // either
	SolvedOnly
	UnsolvedOnly
)

// Filter is the immutable descriptor of all active filter dimensions. It is
// a pure value: replace it wholesale, never mutate it in place. Two filters
// with equal field values are cache-equivalent: KeyParts normalizes
// multi-value fields so assembly order cannot split the cache.
type Filter struct {
	// Demographic
	States          []string
	VictimSex       []string
	VictimRace      []string
	VictimEthnicity []string
	VictimAgeMin    int
	VictimAgeMax    int
	// IncludeUnknownAge also matches cases with the AgeUnknown sentinel
	// when an age range is set.
	IncludeUnknownAge bool

	// Temporal
	YearMin int
	YearMax int

	// Status
	Solved Solved

	// Crime characteristics
	Weapons       []string
	Relationships []string
	Circumstances []string
	Situations    []string

	// Geographic
	Counties []string
	MSAs     []string

	// Search
	AgencySearch string // substring, case-insensitive on the server
	CaseID       string // exact match
}

// Default returns the descriptor matching the whole dataset: full year
// range, either solved state, full known-age range, no set filters.
func Default() Filter {
	return Filter{
		YearMin:      YearFloor,
		YearMax:      YearCeil,
		VictimAgeMax: AgeCeil,
	}
}

// Params maps the filter to outgoing request parameters. A field is omitted
// when it equals its documented default (full year range, "all" solved
// state, empty set), keeping requests minimal and keys stable across
// semantically-default variations expressed differently by the UI.
func (f Filter) Params() url.Values {
	v := url.Values{}

	setList := func(name string, vals []string) {
		if vals = canonical(vals); len(vals) > 0 {
			v.Set(name, strings.Join(vals, ","))
		}
	}

	setList("states", f.States)
	setList("vic_sex", f.VictimSex)
	setList("vic_race", f.VictimRace)
	setList("vic_ethnic", f.VictimEthnicity)
	setList("weapon", f.Weapons)
	setList("relationship", f.Relationships)
	setList("circumstance", f.Circumstances)
	setList("situation", f.Situations)
	setList("county", f.Counties)
	setList("msa", f.MSAs)

	if f.VictimAgeMin != 0 {
		v.Set("vic_age_min", strconv.Itoa(f.VictimAgeMin))
	}
	if f.VictimAgeMax != 0 && f.VictimAgeMax != AgeCeil {
		v.Set("vic_age_max", strconv.Itoa(f.VictimAgeMax))
	}
	if f.IncludeUnknownAge {
		v.Set("include_unknown_age", "true")
	}
	if f.YearMin != 0 && f.YearMin != YearFloor {
		v.Set("year_min", strconv.Itoa(f.YearMin))
	}
	if f.YearMax != 0 && f.YearMax != YearCeil {
		v.Set("year_max", strconv.Itoa(f.YearMax))
	}
	switch f.Solved {
	case SolvedOnly:
		v.Set("solved", "1")
	case UnsolvedOnly:
		v.Set("solved", "0")
	}
	if f.AgencySearch != "" {
		v.Set("agency_search", f.AgencySearch)
	}
	if f.CaseID != "" {
		v.Set("case_id", f.CaseID)
	}

	return v
}

// KeyParts renders the filter as canonical key material for
// caseflow.DeriveKey. It reuses the Params mapping, so the key covers
// exactly the fields the request carries, in a fixed field order.
func (f Filter) KeyParts() []string {
	return keyParts(f.Params())
}

// TimelineKeyParts is KeyParts over the timeline parameter mapping, so the
// key covers exactly what a timeline request carries.
func (f Filter) TimelineKeyParts() []string {
	return keyParts(f.TimelineParams())
}

// MapKeyParts is KeyParts over the map parameter mapping.
func (f Filter) MapKeyParts() []string {
	return keyParts(f.MapParams())
}

func keyParts(v url.Values) []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strings.Join(v[name], ","))
	}
	return parts
}

// MapParams maps the filter to the map endpoints' parameters. Those
// endpoints take repeated values for multi-value fields, a single state
// name, and year_start/year_end bounds; selections beyond the first state
// are not expressible and are not sent. The county filter is a per-call
// parameter of the case-points endpoint, not part of this mapping.
func (f Filter) MapParams() url.Values {
	v := url.Values{}

	addAll := func(name string, vals []string) {
		for _, s := range canonical(vals) {
			v.Add(name, s)
		}
	}

	if s := first(f.States); s != "" {
		v.Set("state", s)
	}
	f.setYearSpan(v)
	f.setSolvedBool(v)
	addAll("vic_sex", f.VictimSex)
	addAll("vic_race", f.VictimRace)
	if f.VictimAgeMin != 0 {
		v.Set("vic_age_min", strconv.Itoa(f.VictimAgeMin))
	}
	if f.VictimAgeMax != 0 && f.VictimAgeMax != AgeCeil {
		v.Set("vic_age_max", strconv.Itoa(f.VictimAgeMax))
	}
	addAll("weapon", f.Weapons)
	addAll("relationship", f.Relationships)
	addAll("circumstance", f.Circumstances)
	return v
}

// TimelineParams maps the filter to the timeline endpoints' parameters.
// Those endpoints take a single value per dimension; the first canonical
// selection is sent.
func (f Filter) TimelineParams() url.Values {
	v := url.Values{}

	setFirst := func(name string, vals []string) {
		if s := first(vals); s != "" {
			v.Set(name, s)
		}
	}

	setFirst("state", f.States)
	setFirst("county", f.Counties)
	f.setYearSpan(v)
	f.setSolvedBool(v)
	setFirst("victim_sex", f.VictimSex)
	setFirst("victim_race", f.VictimRace)
	if f.VictimAgeMin != 0 {
		v.Set("victim_age_min", strconv.Itoa(f.VictimAgeMin))
	}
	if f.VictimAgeMax != 0 && f.VictimAgeMax != AgeCeil {
		v.Set("victim_age_max", strconv.Itoa(f.VictimAgeMax))
	}
	setFirst("weapon", f.Weapons)
	setFirst("relationship", f.Relationships)
	setFirst("circumstance", f.Circumstances)
	return v
}

func (f Filter) setYearSpan(v url.Values) {
	if f.YearMin != 0 && f.YearMin != YearFloor {
		v.Set("year_start", strconv.Itoa(f.YearMin))
	}
	if f.YearMax != 0 && f.YearMax != YearCeil {
		v.Set("year_end", strconv.Itoa(f.YearMax))
	}
}

func (f Filter) setSolvedBool(v url.Values) {
	switch f.Solved {
	case SolvedOnly:
		v.Set("solved", "true")
	case UnsolvedOnly:
		v.Set("solved", "false")
	}
}

func first(vals []string) string {
	c := canonical(vals)
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// WithYearRange returns a copy of f bounded to [lo, hi], clamped to the
// dataset range. Used by the chart selection bridge.
func (f Filter) WithYearRange(lo, hi int) Filter {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < YearFloor {
		lo = YearFloor
	}
	if hi > YearCeil {
		hi = YearCeil
	}
	out := f
	out.YearMin = lo
	out.YearMax = hi
	return out
}

// canonical sorts and deduplicates a multi-value field. Assembly order in
// the UI must not produce distinct cache keys for the same selection.
func canonical(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	copy(out, vals)
	sort.Strings(out)
	n := 0
	var prev string
	for _, s := range out {
		if s == "" || (n > 0 && s == prev) {
			continue
		}
		out[n], prev = s, s
		n++
	}
	return out[:n]
}
