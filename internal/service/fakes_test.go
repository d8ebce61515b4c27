package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

var errDB = errors.New("connection reset by peer")

type fakeVisaStore struct {
	visas    map[string]*models.Visa
	views    []models.PricingView
	applyErr error
	applied  []models.PriceUpdate
	calls    int
}

func newFakeVisaStore(visas ...models.Visa) *fakeVisaStore {
	s := &fakeVisaStore{visas: map[string]*models.Visa{}}
	for i := range visas {
		v := visas[i]
		s.visas[v.ID] = &v
		s.views = append(s.views, models.PricingView{Visa: v})
	}
	return s
}

func (s *fakeVisaStore) GetPricingView(_ context.Context, _ models.VisaFilter, _ time.Time) ([]models.PricingView, error) {
	s.calls++
	return s.views, nil
}

func (s *fakeVisaStore) GetByID(_ context.Context, id string) (*models.Visa, error) {
	s.calls++
	v, ok := s.visas[id]
	if !ok {
		return nil, utils.NotFound("visa", id)
	}
	cp := *v
	return &cp, nil
}

func (s *fakeVisaStore) GetByIDs(_ context.Context, ids []string) ([]models.Visa, error) {
	s.calls++
	var out []models.Visa
	for _, id := range ids {
		if v, ok := s.visas[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeVisaStore) UpdatePrice(_ context.Context, id string, edit models.PriceEdit) (*models.Visa, error) {
	s.calls++
	v, ok := s.visas[id]
	if !ok {
		return nil, utils.NotFound("visa", id)
	}
	if edit.RetailPrice != nil {
		v.RetailPrice = *edit.RetailPrice
	}
	if edit.AgentStandardPrice != nil {
		v.AgentStandardPrice = edit.AgentStandardPrice
	}
	cp := *v
	return &cp, nil
}

func (s *fakeVisaStore) ApplyPriceUpdates(_ context.Context, updates []models.PriceUpdate) error {
	s.calls++
	if s.applyErr != nil {
		return s.applyErr
	}
	for _, u := range updates {
		v := s.visas[u.VisaID]
		value := u.Value
		if u.Target == models.TargetAgentStandard {
			v.AgentStandardPrice = &value
		} else {
			v.RetailPrice = value
		}
	}
	s.applied = append(s.applied, updates...)
	return nil
}

func (s *fakeVisaStore) Options(context.Context) (*models.VisaOptions, error) {
	s.calls++
	return &models.VisaOptions{Countries: []string{"Japan"}, Types: []string{"single"}}, nil
}

type fakeSpecialStore struct {
	rows      []models.AgentSpecialPrice
	overrides []models.AgentOverride
	failFor   map[string]bool
	upserts   []models.SpecialPriceInput
	calls     int
}

func (s *fakeSpecialStore) ListByVisa(_ context.Context, visaID string) ([]models.AgentSpecialPrice, error) {
	s.calls++
	var out []models.AgentSpecialPrice
	for _, r := range s.rows {
		if r.VisaID == visaID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSpecialStore) Upsert(_ context.Context, in models.SpecialPriceInput) (*models.AgentSpecialPrice, error) {
	s.calls++
	if s.failFor[in.VisaID] {
		return nil, errDB
	}
	s.upserts = append(s.upserts, in)
	agentID := in.AgentID
	return &models.AgentSpecialPrice{ID: fmt.Sprintf("sp%d", len(s.upserts)), VisaID: in.VisaID, AgentID: &agentID, Price: in.Price}, nil
}

func (s *fakeSpecialStore) Delete(_ context.Context, id string) error {
	s.calls++
	if id == "missing" {
		return utils.NotFound("special price", id)
	}
	return nil
}

func (s *fakeSpecialStore) ListByAgent(_ context.Context, _ string) ([]models.AgentOverride, error) {
	s.calls++
	return s.overrides, nil
}

type fakeCampaignStore struct {
	campaigns []models.Campaign
	active    []models.Campaign
	saved     []*models.Campaign
	failFor   map[string]bool
	expired   int64
	calls     int
}

func (s *fakeCampaignStore) ListByVisa(_ context.Context, visaID string) ([]models.Campaign, error) {
	s.calls++
	var out []models.Campaign
	for _, c := range s.campaigns {
		if c.VisaID == visaID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCampaignStore) ListActive(context.Context, time.Time) ([]models.Campaign, error) {
	s.calls++
	return s.active, nil
}

func (s *fakeCampaignStore) Upsert(_ context.Context, c *models.Campaign) (*models.Campaign, error) {
	s.calls++
	if s.failFor[c.VisaID] {
		return nil, errDB
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("c%d", len(s.saved)+1)
	}
	s.saved = append(s.saved, c)
	return c, nil
}

func (s *fakeCampaignStore) Delete(context.Context, string) error {
	s.calls++
	return nil
}

func (s *fakeCampaignStore) DeactivateExpired(context.Context, time.Time) (int64, error) {
	s.calls++
	return s.expired, nil
}

type fakeAgentStore struct {
	agents   map[string]*models.Agent
	searchFn func(ctx context.Context, query string, limit int) ([]models.AgentSummary, error)
}

func (s *fakeAgentStore) Search(ctx context.Context, query string, limit int) ([]models.AgentSummary, error) {
	return s.searchFn(ctx, query, limit)
}

func (s *fakeAgentStore) GetByID(_ context.Context, id string) (*models.Agent, error) {
	a, ok := s.agents[id]
	if !ok {
		return nil, utils.NotFound("agent", id)
	}
	return a, nil
}

type fakeCache struct {
	views         map[string][]models.PricingView
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{views: map[string][]models.PricingView{}}
}

func (c *fakeCache) GetView(_ context.Context, key string) ([]models.PricingView, bool, error) {
	v, ok := c.views[key]
	return v, ok, nil
}

func (c *fakeCache) SetView(_ context.Context, key string, views []models.PricingView) error {
	c.views[key] = views
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidations++
	c.views = map[string][]models.PricingView{}
	return nil
}

type reloadEvent struct {
	scope   string
	visaIDs []string
	failed  bool
}

type fakeNotifier struct {
	events []reloadEvent
}

func (n *fakeNotifier) NotifyPricingReload(scope string, visaIDs []string, failed bool) {
	n.events = append(n.events, reloadEvent{scope: scope, visaIDs: visaIDs, failed: failed})
}

type fakeRecorder struct {
	mu         sync.Mutex
	bulk       []string
	lockBusy   int
	superseded int
	expired    int64
}

func (r *fakeRecorder) ObserveBulk(op string, _, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulk = append(r.bulk, op)
}

func (r *fakeRecorder) LockBusy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockBusy++
}

func (r *fakeRecorder) SearchSuperseded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.superseded++
}

func (r *fakeRecorder) CampaignsExpired(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired += n
}

type busyLocker struct{}

func (busyLocker) Lock(context.Context, string) (func(), error) {
	return nil, utils.ErrLockBusy
}

// fixture wires every service over the same fakes.
type fixture struct {
	visas     *fakeVisaStore
	specials  *fakeSpecialStore
	campaigns *fakeCampaignStore
	agents    *fakeAgentStore
	cache     *fakeCache
	notifier  *fakeNotifier
	metrics   *fakeRecorder
	guard     *MutationGuard

	pricing  *PricingService
	special  *SpecialPriceService
	campaign *CampaignService
	sheet    *PriceSheetService
}

var (
	wib      = time.FixedZone("WIB", 7*3600)
	fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, wib)
)

func newFixture(visas ...models.Visa) *fixture {
	f := &fixture{
		visas:     newFakeVisaStore(visas...),
		specials:  &fakeSpecialStore{failFor: map[string]bool{}},
		campaigns: &fakeCampaignStore{failFor: map[string]bool{}},
		agents:    &fakeAgentStore{agents: map[string]*models.Agent{}},
		cache:     newFakeCache(),
		notifier:  &fakeNotifier{},
		metrics:   &fakeRecorder{},
	}
	f.guard = NewMutationGuard(nil, f.cache, f.notifier, f.metrics)
	f.pricing = NewPricingService(f.visas, f.specials, f.campaigns, f.cache, f.guard, f.metrics, wib, 7)
	f.pricing.now = func() time.Time { return fixedNow }
	f.special = NewSpecialPriceService(f.visas, f.specials, f.guard, f.metrics)
	f.campaign = NewCampaignService(f.campaigns, f.guard, f.metrics, wib)
	f.campaign.now = func() time.Time { return fixedNow }
	f.sheet = NewPriceSheetService(f.pricing, f.specials, f.campaigns, f.agents, wib)
	f.sheet.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) storageCalls() int {
	return f.visas.calls + f.specials.calls + f.campaigns.calls
}

func i64(v int64) *int64 { return &v }
func str(v string) *string { return &v }
