package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/cache"
	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/sse"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// VisaStore is the visa persistence used by pricing services.
type VisaStore interface {
	GetPricingView(ctx context.Context, filter models.VisaFilter, day time.Time) ([]models.PricingView, error)
	GetByID(ctx context.Context, id string) (*models.Visa, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Visa, error)
	UpdatePrice(ctx context.Context, id string, edit models.PriceEdit) (*models.Visa, error)
	ApplyPriceUpdates(ctx context.Context, updates []models.PriceUpdate) error
	Options(ctx context.Context) (*models.VisaOptions, error)
}

// AgentStore is the agent lookup used by search and price sheets.
type AgentStore interface {
	Search(ctx context.Context, query string, limit int) ([]models.AgentSummary, error)
	GetByID(ctx context.Context, id string) (*models.Agent, error)
}

// SpecialPriceStore persists agent special prices.
type SpecialPriceStore interface {
	ListByVisa(ctx context.Context, visaID string) ([]models.AgentSpecialPrice, error)
	Upsert(ctx context.Context, in models.SpecialPriceInput) (*models.AgentSpecialPrice, error)
	Delete(ctx context.Context, id string) error
	ListByAgent(ctx context.Context, agentID string) ([]models.AgentOverride, error)
}

// CampaignStore persists visa campaigns.
type CampaignStore interface {
	ListByVisa(ctx context.Context, visaID string) ([]models.Campaign, error)
	ListActive(ctx context.Context, day time.Time) ([]models.Campaign, error)
	Upsert(ctx context.Context, c *models.Campaign) (*models.Campaign, error)
	Delete(ctx context.Context, id string) error
	DeactivateExpired(ctx context.Context, day time.Time) (int64, error)
}

// ViewCache caches pricing view snapshots.
type ViewCache interface {
	GetView(ctx context.Context, key string) ([]models.PricingView, bool, error)
	SetView(ctx context.Context, key string, views []models.PricingView) error
	Invalidate(ctx context.Context) error
}

// Recorder receives domain metrics.
type Recorder interface {
	ObserveBulk(operation string, succeeded, failed, skipped int)
	LockBusy()
	SearchSuperseded()
	CampaignsExpired(n int64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBulk(string, int, int, int) {}
func (nopRecorder) LockBusy()                         {}
func (nopRecorder) SearchSuperseded()                 {}
func (nopRecorder) CampaignsExpired(int64)            {}

type nopCache struct{}

func (nopCache) GetView(context.Context, string) ([]models.PricingView, bool, error) {
	return nil, false, nil
}
func (nopCache) SetView(context.Context, string, []models.PricingView) error { return nil }
func (nopCache) Invalidate(context.Context) error                            { return nil }

// lockScope is shared by every pricing write so catalogue-wide bulk edits
// never interleave with single edits.
const lockScope = "catalogue"

// MutationGuard wraps every pricing write: it takes the mutation lock, runs
// the write, then invalidates cached views and tells connected dashboards to
// reload, whether the write succeeded or not.
type MutationGuard struct {
	locker   cache.MutationLocker
	views    ViewCache
	notifier sse.ReloadNotifier
	metrics  Recorder
}

// NewMutationGuard creates a MutationGuard. Nil views, notifier or metrics
// are replaced with no-ops.
func NewMutationGuard(locker cache.MutationLocker, views ViewCache, notifier sse.ReloadNotifier, metrics Recorder) *MutationGuard {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if views == nil {
		views = nopCache{}
	}
	if notifier == nil {
		notifier = sse.NopNotifier{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &MutationGuard{locker: locker, views: views, notifier: notifier, metrics: metrics}
}

// Locked runs fn under the mutation lock without the reload side effects.
func (g *MutationGuard) Locked(ctx context.Context, fn func() error) error {
	unlock, err := g.locker.Lock(ctx, lockScope)
	if err != nil {
		if errors.Is(err, utils.ErrLockBusy) {
			g.metrics.LockBusy()
		}
		return err
	}
	defer unlock()
	return fn()
}

// Do runs fn under the mutation lock. fn returns the visa ids it touched and
// whether any part of it failed; a returned error also counts as failure.
func (g *MutationGuard) Do(ctx context.Context, scope string, fn func() (visaIDs []string, failed bool, err error)) error {
	return g.Locked(ctx, func() error {
		ids, failed, err := fn()
		g.Reload(ctx, scope, ids, failed || err != nil)
		return err
	})
}

// Reload invalidates cached views and broadcasts a reload event.
func (g *MutationGuard) Reload(ctx context.Context, scope string, visaIDs []string, failed bool) {
	// Invalidation must run even when the request was canceled mid-write.
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := g.views.Invalidate(ictx); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("Failed to invalidate pricing cache")
	}
	g.notifier.NotifyPricingReload(scope, visaIDs, failed)
}
