// Package explorer wires the data layer together for the application root:
// one filter store, one query cache per family, a windower for the case
// list, and the chart selection bridge. Views take an *Explorer by
// reference and hold the query handles it builds; every handle for the same
// filter shares cache entries, so a dashboard of eight panels issues eight
// requests, not eight per panel per mount.
package explorer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/unkn0wn-root/caseflow"
	"github.com/unkn0wn-root/caseflow/cases"
	"github.com/unkn0wn-root/caseflow/codec"
	"github.com/unkn0wn-root/caseflow/filterstate"
	"github.com/unkn0wn-root/caseflow/provider"
	"github.com/unkn0wn-root/caseflow/service"
	"github.com/unkn0wn-root/caseflow/window"
)

const (
	defaultGeoTopN       = 10
	defaultEstimateRowPx = 36
)

var errServiceRequired = errors.New("explorer: Config.Service is required")

type Config struct {
	// Required.
	Service service.Service

	// Filters is the shared filter container; nil builds one holding
	// cases.Default().
	Filters *filterstate.Store

	PageSize int // 0 => caseflow.DefaultPageSize
	GeoTopN  int // 0 => 10

	StaleTime time.Duration // 0 => caseflow.DefaultStaleTime
	GCTime    time.Duration // 0 => caseflow.DefaultGCTime

	Logger caseflow.Logger
	Hooks  caseflow.Hooks

	// Persist, when set, backs every family with the same snapshot store
	// (JSON-encoded).
	Persist provider.Provider
}

// Explorer owns the per-family stores and the windower for the case list.
type Explorer struct {
	svc     service.Service
	filters *filterstate.Store
	bridge  *filterstate.YearBridge
	win     *window.Windower

	pageSize int
	geoTopN  int

	listStore     *caseflow.Store[caseflow.PageSet[cases.Case]]
	detailStore   *caseflow.Store[cases.Case]
	setupStore    *caseflow.Store[cases.SetupStatus]
	summaryStore  *caseflow.Store[cases.StatsSummary]
	demoStore     *caseflow.Store[cases.Demographics]
	categoryStore *caseflow.Store[cases.CategoryStats]
	geoStore      *caseflow.Store[cases.GeoStats]
	trendStore    *caseflow.Store[cases.TrendStats]
	seasonalStore *caseflow.Store[cases.SeasonalStats]

	timelineStore  *caseflow.Store[cases.TimelineData]
	trendLineStore *caseflow.Store[cases.TimelineTrends]
	countyStore    *caseflow.Store[cases.MapData]
	casePointStore *caseflow.Store[cases.MapCases]

	unsubscribe func()
}

func New(cfg Config) (*Explorer, error) {
	if cfg.Service == nil {
		return nil, errServiceRequired
	}

	e := &Explorer{
		svc:      cfg.Service,
		filters:  cfg.Filters,
		pageSize: cfg.PageSize,
		geoTopN:  cfg.GeoTopN,
		win:      window.New(defaultEstimateRowPx, -1),
	}
	if e.filters == nil {
		e.filters = filterstate.New(cases.Default())
	}
	if e.pageSize <= 0 {
		e.pageSize = caseflow.DefaultPageSize
	}
	if e.geoTopN <= 0 {
		e.geoTopN = defaultGeoTopN
	}
	e.bridge = filterstate.NewYearBridge(e.filters)

	read := caseflow.ReadRetry()
	analysis := caseflow.AnalysisRetry()
	preflight := caseflow.PreflightRetry()

	var err error
	if e.listStore, err = newStore[caseflow.PageSet[cases.Case]](cfg, "cases", &read); err != nil {
		return nil, err
	}
	if e.detailStore, err = newStore[cases.Case](cfg, "case", &read); err != nil {
		return nil, err
	}
	if e.setupStore, err = newStore[cases.SetupStatus](cfg, "setup", &preflight); err != nil {
		return nil, err
	}
	if e.summaryStore, err = newStore[cases.StatsSummary](cfg, "summary", &read); err != nil {
		return nil, err
	}
	if e.demoStore, err = newStore[cases.Demographics](cfg, "demographics", &read); err != nil {
		return nil, err
	}
	if e.categoryStore, err = newStore[cases.CategoryStats](cfg, "category", &read); err != nil {
		return nil, err
	}
	if e.geoStore, err = newStore[cases.GeoStats](cfg, "geo", &read); err != nil {
		return nil, err
	}
	if e.trendStore, err = newStore[cases.TrendStats](cfg, "trend", &analysis); err != nil {
		return nil, err
	}
	if e.seasonalStore, err = newStore[cases.SeasonalStats](cfg, "seasonal", &analysis); err != nil {
		return nil, err
	}
	if e.timelineStore, err = newStore[cases.TimelineData](cfg, "timeline", &read); err != nil {
		return nil, err
	}
	if e.trendLineStore, err = newStore[cases.TimelineTrends](cfg, "timeline_trends", &analysis); err != nil {
		return nil, err
	}
	if e.countyStore, err = newStore[cases.MapData](cfg, "map_counties", &read); err != nil {
		return nil, err
	}
	if e.casePointStore, err = newStore[cases.MapCases](cfg, "map_cases", &read); err != nil {
		return nil, err
	}

	// A filter change retires the visible list: the windower's scroll
	// anchor and measurements belong to the old key. Old entries stay
	// cached until stale/GC, so flipping a filter back is a cache hit.
	e.unsubscribe = e.filters.Subscribe(func(cases.Filter) {
		e.win.Reset()
	})

	return e, nil
}

func newStore[V any](cfg Config, family string, retry *caseflow.RetryPolicy) (*caseflow.Store[V], error) {
	opts := caseflow.Options[V]{
		Family:    family,
		StaleTime: cfg.StaleTime,
		GCTime:    cfg.GCTime,
		Retry:     retry,
		Logger:    cfg.Logger,
		Hooks:     cfg.Hooks,
	}
	if cfg.Persist != nil {
		opts.Persist = cfg.Persist
		opts.Codec = codec.JSON[V]{}
	}
	return caseflow.NewStore[V](opts)
}

// Filters exposes the shared filter container.
func (e *Explorer) Filters() *filterstate.Store { return e.filters }

// YearBridge exposes the chart selection bridge.
func (e *Explorer) YearBridge() *filterstate.YearBridge { return e.bridge }

// Windower exposes the case list windower.
func (e *Explorer) Windower() *window.Windower { return e.win }

// Cases builds the infinite query for the active filter. The filter is
// captured by value: if it changes while page fetches are in flight, those
// results land (or are discarded) under the old key, never the new one.
func (e *Explorer) Cases() *caseflow.Infinite[cases.Case] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("cases", f.KeyParts(), "limit="+strconv.Itoa(e.pageSize))
	return caseflow.NewInfinite(e.listStore, key, func(ctx context.Context, cursor string) (caseflow.Page[cases.Case], error) {
		return e.svc.ListCases(ctx, f, cursor, e.pageSize)
	})
}

// Pager binds the active case list to ctx for the windower.
func (e *Explorer) Pager(ctx context.Context) caseflow.BoundPager[cases.Case] {
	return caseflow.BoundPager[cases.Case]{Ctx: ctx, Q: e.Cases()}
}

// CaseDetail builds the query for one record.
func (e *Explorer) CaseDetail(id string) *caseflow.Query[cases.Case] {
	key := caseflow.DeriveKey("case", nil, "id="+id)
	return caseflow.NewQuery(e.detailStore, key, func(ctx context.Context) (cases.Case, error) {
		return e.svc.GetCase(ctx, id)
	})
}

// Setup builds the preflight status query (never retried).
func (e *Explorer) Setup() *caseflow.Query[cases.SetupStatus] {
	key := caseflow.DeriveKey("setup", nil)
	return caseflow.NewQuery(e.setupStore, key, func(ctx context.Context) (cases.SetupStatus, error) {
		return e.svc.SetupStatus(ctx)
	})
}

// Summary builds the KPI query for the active filter. Each aggregate panel
// queries independently: one failing panel leaves the siblings rendering
// their own data.
func (e *Explorer) Summary() *caseflow.Query[cases.StatsSummary] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("summary", f.KeyParts())
	return caseflow.NewQuery(e.summaryStore, key, func(ctx context.Context) (cases.StatsSummary, error) {
		return e.svc.Summary(ctx, f)
	})
}

func (e *Explorer) Demographics() *caseflow.Query[cases.Demographics] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("demographics", f.KeyParts())
	return caseflow.NewQuery(e.demoStore, key, func(ctx context.Context) (cases.Demographics, error) {
		return e.svc.Demographics(ctx, f)
	})
}

func (e *Explorer) Weapons() *caseflow.Query[cases.CategoryStats] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("weapons", f.KeyParts())
	return caseflow.NewQuery(e.categoryStore, key, func(ctx context.Context) (cases.CategoryStats, error) {
		return e.svc.Weapons(ctx, f)
	})
}

func (e *Explorer) Circumstances() *caseflow.Query[cases.CategoryStats] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("circumstances", f.KeyParts())
	return caseflow.NewQuery(e.categoryStore, key, func(ctx context.Context) (cases.CategoryStats, error) {
		return e.svc.Circumstances(ctx, f)
	})
}

func (e *Explorer) Relationships() *caseflow.Query[cases.CategoryStats] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("relationships", f.KeyParts())
	return caseflow.NewQuery(e.categoryStore, key, func(ctx context.Context) (cases.CategoryStats, error) {
		return e.svc.Relationships(ctx, f)
	})
}

// Geography keys on top-N as well as the filter, so a top-10 map and a
// top-50 table of the same filter do not collide in the cache.
func (e *Explorer) Geography() *caseflow.Query[cases.GeoStats] {
	f := e.filters.Current()
	topN := e.geoTopN
	key := caseflow.DeriveKey("geo", f.KeyParts(), "top_n="+strconv.Itoa(topN))
	return caseflow.NewQuery(e.geoStore, key, func(ctx context.Context) (cases.GeoStats, error) {
		return e.svc.Geography(ctx, f, topN)
	})
}

func (e *Explorer) Trend() *caseflow.Query[cases.TrendStats] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("trend", f.KeyParts())
	return caseflow.NewQuery(e.trendStore, key, func(ctx context.Context) (cases.TrendStats, error) {
		return e.svc.Trend(ctx, f)
	})
}

func (e *Explorer) Seasonal() *caseflow.Query[cases.SeasonalStats] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("seasonal", f.KeyParts())
	return caseflow.NewQuery(e.seasonalStore, key, func(ctx context.Context) (cases.SeasonalStats, error) {
		return e.svc.Seasonal(ctx, f)
	})
}

// Timeline builds the chart series query. It keys on the timeline
// parameter mapping rather than the full filter, so filters differing only
// in dimensions the timeline endpoint cannot express share one entry.
func (e *Explorer) Timeline(g cases.Granularity) *caseflow.Query[cases.TimelineData] {
	if g == "" {
		g = cases.GranularityYear
	}
	f := e.filters.Current()
	key := caseflow.DeriveKey("timeline", f.TimelineKeyParts(), "granularity="+string(g))
	return caseflow.NewQuery(e.timelineStore, key, func(ctx context.Context) (cases.TimelineData, error) {
		return e.svc.TimelineData(ctx, f, g)
	})
}

// TimelineTrends builds the smoothed trend query. window <= 0 defers to
// the backend default.
func (e *Explorer) TimelineTrends(metric cases.TrendMetric, g cases.Granularity, window int) *caseflow.Query[cases.TimelineTrends] {
	if metric == "" {
		metric = cases.MetricSolveRate
	}
	if g == "" {
		g = cases.GranularityYear
	}
	f := e.filters.Current()
	key := caseflow.DeriveKey("timeline_trends", f.TimelineKeyParts(),
		"metric="+string(metric),
		"granularity="+string(g),
		"window="+strconv.Itoa(window))
	return caseflow.NewQuery(e.trendLineStore, key, func(ctx context.Context) (cases.TimelineTrends, error) {
		return e.svc.TimelineTrends(ctx, f, metric, g, window)
	})
}

// MapCounties builds the county aggregation query for the map view.
func (e *Explorer) MapCounties() *caseflow.Query[cases.MapData] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("map_counties", f.MapKeyParts())
	return caseflow.NewQuery(e.countyStore, key, func(ctx context.Context) (cases.MapData, error) {
		return e.svc.MapCounties(ctx, f)
	})
}

// MapCases builds the case-point query for one county drill-down. county
// is a FIPS code (empty means all matching counties); limit <= 0 defers to
// the backend cap.
func (e *Explorer) MapCases(county string, limit int) *caseflow.Query[cases.MapCases] {
	f := e.filters.Current()
	key := caseflow.DeriveKey("map_cases", f.MapKeyParts(),
		"county="+county,
		"limit="+strconv.Itoa(limit))
	return caseflow.NewQuery(e.casePointStore, key, func(ctx context.Context) (cases.MapCases, error) {
		return e.svc.MapCases(ctx, f, county, limit)
	})
}

// Close tears down every store, canceling in-flight fetches.
func (e *Explorer) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.listStore.Close()
	e.detailStore.Close()
	e.setupStore.Close()
	e.summaryStore.Close()
	e.demoStore.Close()
	e.categoryStore.Close()
	e.geoStore.Close()
	e.trendStore.Close()
	e.seasonalStore.Close()
	e.timelineStore.Close()
	e.trendLineStore.Close()
	e.countyStore.Close()
	e.casePointStore.Close()
}
