package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/phrazzld/totem-api/internal/domain"
	"github.com/phrazzld/totem-api/internal/platform/logger"
	"github.com/phrazzld/totem-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Query bounds of the dashboard listings.
const (
	DefaultRecentLimit  = 10
	MaxRecentLimit      = 100
	DefaultActivityDays = 30
	MaxActivityDays     = 365
)

// DashboardService aggregates counts over the kiosk tables for the admin
// dashboard. Every method requires at least the moderator role.
type DashboardService interface {
	// Stats returns the overall totals and the per-status and per-type breakdowns.
	Stats(ctx context.Context, p domain.Principal) (*domain.DashboardStats, error)

	// TotemsBy returns the totem totals of every row of parent, which must
	// declare a "totems" relation.
	TotemsBy(ctx context.Context, p domain.Principal, parent string) ([]domain.EntityTotals, error)

	// RecentNotifications returns the active notifications with the latest
	// start date. A zero limit means DefaultRecentLimit.
	RecentNotifications(ctx context.Context, p domain.Principal, limit int) ([]domain.Record, error)

	// ActivityStats counts the rows created during the last days.
	// Zero days means DefaultActivityDays.
	ActivityStats(ctx context.Context, p domain.Principal, days int) (*domain.ActivityStats, error)

	// SystemHealth pings the database and samples the process. An
	// unreachable database is reported in the result, not as an error.
	SystemHealth(ctx context.Context, p domain.Principal) (*domain.SystemHealth, error)
}

// DashboardServiceOptions configures a DashboardService.
type DashboardServiceOptions struct {
	// Now replaces time.Now.
	Now func() time.Time
	// StartedAt is the process start used for uptime; Now() when zero.
	StartedAt time.Time
}

// dashboardTables are the registry entries the dashboard reads.
var dashboardTables = []string{
	"totems", "notifications", "users", "user_chats",
	"multimedia", "institutions", "categories", "regions",
}

type dashboardServiceImpl struct {
	registry  *domain.Registry
	stats     store.StatsStore
	tables    map[string]*domain.EntityDescriptor
	now       func() time.Time
	startedAt time.Time
	logger    *slog.Logger
}

// NewDashboardService creates a new DashboardService.
// It returns an error if a dependency is nil or the registry lacks a table
// the dashboard reads.
func NewDashboardService(
	registry *domain.Registry,
	stats store.StatsStore,
	opts DashboardServiceOptions,
	logger *slog.Logger,
) (DashboardService, error) {
	if registry == nil {
		return nil, NewServiceError("dashboard", "create_service", fmt.Errorf("registry cannot be nil"))
	}
	if stats == nil {
		return nil, NewServiceError("dashboard", "create_service", fmt.Errorf("statsStore cannot be nil"))
	}

	tables := make(map[string]*domain.EntityDescriptor, len(dashboardTables))
	for _, name := range dashboardTables {
		d, ok := registry.Lookup(name)
		if !ok {
			return nil, NewServiceError("dashboard", "create_service",
				fmt.Errorf("%w: %s", store.ErrUnknownEntity, name))
		}
		tables[name] = d
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = now()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &dashboardServiceImpl{
		registry:  registry,
		stats:     stats,
		tables:    tables,
		now:       now,
		startedAt: startedAt,
		logger:    logger.With("component", "dashboard_service"),
	}, nil
}

var (
	isActive  = domain.Assignment{Column: "active", Value: true}
	isPending = domain.Assignment{Column: "status", Value: "pending"}
)

// Stats implements DashboardService.
func (s *dashboardServiceImpl) Stats(ctx context.Context, p domain.Principal) (*domain.DashboardStats, error) {
	if err := authorize(p, domain.RoleModerator); err != nil {
		return nil, err
	}

	var out domain.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, table string, filters ...domain.Assignment) {
		g.Go(func() error {
			n, err := s.stats.Count(gctx, s.tables[table], filters...)
			*dst = n
			return err
		})
	}
	group := func(dst *[]domain.GroupCount, table, column string, filters ...domain.Assignment) {
		g.Go(func() error {
			groups, err := s.stats.CountBy(gctx, s.tables[table], column, filters...)
			*dst = groups
			return err
		})
	}

	count(&out.TotalTotems, "totems")
	count(&out.ActiveTotems, "totems", isActive)
	count(&out.TotalNotifications, "notifications")
	count(&out.ActiveNotifications, "notifications", isActive)
	count(&out.ActiveUsers, "users", isActive)
	count(&out.PendingChats, "user_chats", isPending)
	count(&out.ActiveMultimedia, "multimedia", isActive)
	count(&out.ActiveInstitutions, "institutions", isActive)
	count(&out.ActiveCategories, "categories", isActive)
	count(&out.ActiveRegions, "regions", isActive)
	group(&out.ChatsByStatus, "user_chats", "status")
	group(&out.MultimediaByType, "multimedia", "media_type", isActive)
	group(&out.NotificationsByType, "notifications", "type", isActive)

	if err := g.Wait(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute dashboard stats",
			slog.String("error", err.Error()))
		return nil, err
	}
	out.InactiveTotems = out.TotalTotems - out.ActiveTotems
	return &out, nil
}

// TotemsBy implements DashboardService.
func (s *dashboardServiceImpl) TotemsBy(
	ctx context.Context,
	p domain.Principal,
	parent string,
) ([]domain.EntityTotals, error) {
	if err := authorize(p, domain.RoleModerator); err != nil {
		return nil, err
	}
	d, ok := s.registry.Lookup(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUnknownEntity, parent)
	}
	rel, ok := d.Relation("totems")
	if !ok {
		return nil, fmt.Errorf("%w: %s/totems", ErrUnknownSubresource, parent)
	}
	return s.stats.ChildTotals(ctx, d, s.tables[rel.Entity], rel.ForeignKey)
}

// RecentNotifications implements DashboardService.
func (s *dashboardServiceImpl) RecentNotifications(
	ctx context.Context,
	p domain.Principal,
	limit int,
) ([]domain.Record, error) {
	if err := authorize(p, domain.RoleModerator); err != nil {
		return nil, err
	}
	limit, err := bounded("limit", limit, DefaultRecentLimit, MaxRecentLimit)
	if err != nil {
		return nil, err
	}
	return s.stats.Latest(ctx, s.tables["notifications"], "starts_at", limit, isActive)
}

// ActivityStats implements DashboardService.
func (s *dashboardServiceImpl) ActivityStats(
	ctx context.Context,
	p domain.Principal,
	days int,
) (*domain.ActivityStats, error) {
	if err := authorize(p, domain.RoleModerator); err != nil {
		return nil, err
	}
	days, err := bounded("days", days, DefaultActivityDays, MaxActivityDays)
	if err != nil {
		return nil, err
	}

	out := domain.ActivityStats{
		Days:  days,
		Since: s.now().UTC().AddDate(0, 0, -days),
	}
	g, gctx := errgroup.WithContext(ctx)
	since := func(dst *int64, table string) {
		g.Go(func() error {
			n, err := s.stats.CountSince(gctx, s.tables[table], out.Since)
			*dst = n
			return err
		})
	}
	since(&out.ChatsCreated, "user_chats")
	since(&out.NotificationsCreated, "notifications")
	since(&out.MultimediaCreated, "multimedia")
	since(&out.TotemsCreated, "totems")
	since(&out.UsersCreated, "users")

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// SystemHealth implements DashboardService.
func (s *dashboardServiceImpl) SystemHealth(ctx context.Context, p domain.Principal) (*domain.SystemHealth, error) {
	if err := authorize(p, domain.RoleModerator); err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pool, err := s.stats.Pool(pingCtx)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	now := s.now()

	health := &domain.SystemHealth{
		Status:         domain.HealthHealthy,
		Database:       "connected",
		Pool:           pool,
		UptimeSeconds:  now.Sub(s.startedAt).Seconds(),
		HeapAllocBytes: mem.HeapAlloc,
		Goroutines:     runtime.NumGoroutine(),
		Timestamp:      now.UTC(),
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("system health check failed",
			slog.String("error", err.Error()))
		health.Status = domain.HealthUnhealthy
		health.Database = "disconnected"
	}
	return health, nil
}

// bounded applies the default to a zero value and rejects values outside [1, upper].
func bounded(field string, v, def, upper int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 1 || v > upper {
		return 0, domain.NewValidationError(field, fmt.Sprintf("must be between 1 and %d", upper), nil)
	}
	return v, nil
}
