package cases

// CountyMapPoint is one county aggregation for choropleth or marker
// rendering, positioned at the county centroid.
type CountyMapPoint struct {
	FIPS          string  `json:"fips"`
	StateName     string  `json:"state_name"`
	CountyName    string  `json:"county_name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	TotalCases    int     `json:"total_cases"`
	SolvedCases   int     `json:"solved_cases"`
	UnsolvedCases int     `json:"unsolved_cases"`
	SolveRate     float64 `json:"solve_rate"`
}

// MapBounds is the bounding box of returned data, for viewport auto-zoom.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// MapData is the county aggregation response behind the map view.
type MapData struct {
	Counties      []CountyMapPoint `json:"counties"`
	Bounds        MapBounds        `json:"bounds"`
	TotalCases    int              `json:"total_cases"`
	TotalCounties int              `json:"total_counties"`
}

// MapCasePoint is one case marker, placed at its county centroid. Optional
// fields are nil when the record does not carry them.
type MapCasePoint struct {
	CaseID    int     `json:"case_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Year      int     `json:"year"`
	Solved    bool    `json:"solved"`
	VicSex    *string `json:"victim_sex"`
	VicAge    *int    `json:"victim_age"`
	Weapon    *string `json:"weapon"`
}

// MapCases is the case-point response. Limited reports that the server
// truncated the result to the requested limit.
type MapCases struct {
	Cases   []MapCasePoint `json:"cases"`
	Total   int            `json:"total"`
	Limited bool           `json:"limited"`
}
