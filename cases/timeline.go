package cases

// Granularity is the time bucket size for timeline aggregation.
type Granularity string

const (
	GranularityYear   Granularity = "year"
	GranularityMonth  Granularity = "month"
	GranularityDecade Granularity = "decade"
)

// TrendMetric selects which series the trends endpoint analyzes.
type TrendMetric string

const (
	MetricSolveRate     TrendMetric = "solve_rate"
	MetricTotalCases    TrendMetric = "total_cases"
	MetricSolvedCases   TrendMetric = "solved_cases"
	MetricUnsolvedCases TrendMetric = "unsolved_cases"
)

// TimelinePoint is one aggregated time bucket. Period renders per
// granularity: "2020", "2020-01", or "2020s".
type TimelinePoint struct {
	Period        string  `json:"period"`
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// TimelineRange is the first and last period of a timeline response.
type TimelineRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimelineData is the aggregated series behind the timeline chart. This is
// the series the year-range selection bridge rides on: periodAt maps a
// selected bucket index back into Data.
type TimelineData struct {
	Data        []TimelinePoint `json:"data"`
	Granularity Granularity     `json:"granularity"`
	TotalCases  int             `json:"total_cases"`
	DateRange   TimelineRange   `json:"date_range"`
}

// TimelineTrendPoint is one bucket of a trend series. MovingAverage is nil
// for leading positions where the smoothing window does not fit.
type TimelineTrendPoint struct {
	Period        string   `json:"period"`
	Value         float64  `json:"value"`
	MovingAverage *float64 `json:"moving_average"`
}

// TimelineTrends is the smoothed trend analysis response.
type TimelineTrends struct {
	Trends              []TimelineTrendPoint `json:"trends"`
	Metric              string               `json:"metric"`
	Granularity         string               `json:"granularity"`
	MovingAverageWindow int                  `json:"moving_average_window"`
}
