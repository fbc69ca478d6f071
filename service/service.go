// Package service is the boundary to the case explorer's REST backend. The
// Service interface is what the data layer consumes; Client is its HTTP
// implementation. Retry lives in the caching layer, never here; a Service
// call is exactly one request.
package service

import (
	"context"

	"github.com/unkn0wn-root/caseflow"
	"github.com/unkn0wn-root/caseflow/cases"
)

// Service is the abstract backend contract. Every method accepts the same
// filter-to-parameter mapping (only non-default fields are transmitted) and
// returns its own aggregate shape. All errors are typed *caseflow.Error
// values; no raw transport error escapes an implementation.
type Service interface {
	// ListCases returns one cursor-delimited page. cursor is empty for
	// page 1; limit <= 0 means caseflow.DefaultPageSize.
	ListCases(ctx context.Context, f cases.Filter, cursor string, limit int) (caseflow.Page[cases.Case], error)

	// GetCase returns a single record; a missing id is a terminal 404.
	GetCase(ctx context.Context, id string) (cases.Case, error)

	// SetupStatus is the preflight check issued before real queries; it
	// is never retried (the UI shows the setup screen instead).
	SetupStatus(ctx context.Context) (cases.SetupStatus, error)

	// Summary returns the aggregate KPIs for the filtered set.
	Summary(ctx context.Context, f cases.Filter) (cases.StatsSummary, error)

	Demographics(ctx context.Context, f cases.Filter) (cases.Demographics, error)
	Weapons(ctx context.Context, f cases.Filter) (cases.CategoryStats, error)
	Circumstances(ctx context.Context, f cases.Filter) (cases.CategoryStats, error)
	Relationships(ctx context.Context, f cases.Filter) (cases.CategoryStats, error)

	// Geography returns the topN states and counties by case count.
	Geography(ctx context.Context, f cases.Filter, topN int) (cases.GeoStats, error)

	Trend(ctx context.Context, f cases.Filter) (cases.TrendStats, error)
	Seasonal(ctx context.Context, f cases.Filter) (cases.SeasonalStats, error)

	// TimelineData returns the series for the timeline chart, bucketed by
	// granularity. The timeline endpoints take one value per filter
	// dimension; see cases.Filter.TimelineParams.
	TimelineData(ctx context.Context, f cases.Filter, g cases.Granularity) (cases.TimelineData, error)

	// TimelineTrends returns the smoothed series for metric. window is the
	// moving-average width; window <= 0 means the backend default.
	TimelineTrends(ctx context.Context, f cases.Filter, metric cases.TrendMetric, g cases.Granularity, window int) (cases.TimelineTrends, error)

	// MapCounties returns county aggregations for the map view.
	MapCounties(ctx context.Context, f cases.Filter) (cases.MapData, error)

	// MapCases returns individual case points. county narrows to one
	// county by FIPS code (empty means all); limit <= 0 means the backend
	// default cap.
	MapCases(ctx context.Context, f cases.Filter, county string, limit int) (cases.MapCases, error)
}
