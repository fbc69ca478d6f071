package cases

// Case is one record as returned by the list and detail endpoints. JSON tags
// mirror the service's response fields.
type Case struct {
	ID         string `json:"id"`
	CountyFIPS string `json:"cntyfips"`
	ORI        string `json:"ori"`
	State      string `json:"state"`
	Agency     string `json:"agency"`
	AgencyType string `json:"agentype"`
	Source     string `json:"source"`

	Solved    int    `json:"solved"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Incident  int    `json:"incident"`
	Homicide  string `json:"homicide"`
	Situation string `json:"situation"`

	VicAge    int    `json:"vic_age"`
	VicSex    string `json:"vic_sex"`
	VicRace   string `json:"vic_race"`
	VicEthnic string `json:"vic_ethnic"`

	OffAge    int    `json:"off_age"`
	OffSex    string `json:"off_sex"`
	OffRace   string `json:"off_race"`
	OffEthnic string `json:"off_ethnic"`

	Weapon       string `json:"weapon"`
	Relationship string `json:"relationship"`
	Circumstance string `json:"circumstance"`
	Subcircum    string `json:"subcircum"`

	VicCount int `json:"vic_count"`
	OffCount int `json:"off_count"`

	MSA    string `json:"msa"`
	Decade int    `json:"decade"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// SetupStatus reports whether the backend's dataset is loaded. Checked once
// before the UI issues real queries.
type SetupStatus struct {
	Initialized    bool `json:"initialized"`
	RecordCount    int  `json:"record_count"`
	DatabaseExists bool `json:"database_exists"`
}

// StatsSummary is the aggregate KPI set for a filtered case set.
type StatsSummary struct {
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// DemographicBreakdown is one category row of a demographic dimension.
type DemographicBreakdown struct {
	Category          string  `json:"category"`
	TotalCases        int     `json:"total_cases"`
	SolvedCases       int     `json:"solved_cases"`
	UnsolvedCases     int     `json:"unsolved_cases"`
	SolveRate         float64 `json:"solve_rate"`
	PercentageOfTotal float64 `json:"percentage_of_total"`
}

// Demographics groups the victim breakdowns behind the demographics panel.
type Demographics struct {
	BySex      []DemographicBreakdown `json:"by_sex"`
	ByRace     []DemographicBreakdown `json:"by_race"`
	ByAgeGroup []DemographicBreakdown `json:"by_age_group"`
}

// CategoryBreakdown is the generic categorical row used by the weapon,
// circumstance, and relationship panels.
type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	SolveRate  float64 `json:"solve_rate"`
}

// CategoryStats wraps a top-N categorical breakdown.
type CategoryStats struct {
	Categories []CategoryBreakdown `json:"categories"`
	TotalCases int                 `json:"total_cases"`
}

// StateStat aggregates one state for the geography panel.
type StateStat struct {
	State         string  `json:"state"`
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// CountyStat aggregates one county for the geography panel.
type CountyStat struct {
	County        string  `json:"county"`
	State         string  `json:"state"`
	CountyFIPS    int     `json:"county_fips"`
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// GeoStats is the geographic breakdown, bounded by the requested top-N.
type GeoStats struct {
	TopStates   []StateStat  `json:"top_states"`
	TopCounties []CountyStat `json:"top_counties"`
}

// YearlyTrendPoint is one year of the trend series.
type YearlyTrendPoint struct {
	Year          int     `json:"year"`
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// TrendStats is the yearly trend response.
type TrendStats struct {
	YearlyData         []YearlyTrendPoint `json:"yearly_data"`
	OverallTrend       string             `json:"overall_trend"` // "increasing", "decreasing", "stable"
	AverageAnnualCases float64            `json:"average_annual_cases"`
}

// SeasonalPattern is one month of the seasonal analysis.
type SeasonalPattern struct {
	Month              int     `json:"month"`
	MonthName          string  `json:"month_name"`
	AverageCases       float64 `json:"average_cases"`
	PercentageOfAnnual float64 `json:"percentage_of_annual"`
}

// SeasonalStats is the seasonal pattern response.
type SeasonalStats struct {
	Patterns    []SeasonalPattern `json:"patterns"`
	PeakMonth   string            `json:"peak_month"`
	LowestMonth string            `json:"lowest_month"`
}
