package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/models"
	"github.com/GTDGit/gtd_visa/internal/utils"
)

// Superseder keeps at most one live operation per key. Starting a newer one
// cancels the context of the previous one.
type Superseder struct {
	mu   sync.Mutex
	seq  uint64
	live map[string]liveOp
}

type liveOp struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewSuperseder creates an empty Superseder.
func NewSuperseder() *Superseder {
	return &Superseder{live: make(map[string]liveOp)}
}

// Begin registers a new operation for key and returns its context plus a
// done func, which must be called when the operation ends. current reports
// whether no newer operation has started since.
func (s *Superseder) Begin(parent context.Context, key string) (ctx context.Context, current func() bool, done func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if prev, ok := s.live[key]; ok {
		prev.cancel()
	}
	s.live[key] = liveOp{seq: seq, cancel: cancel}
	s.mu.Unlock()

	current = func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		op, ok := s.live[key]
		return ok && op.seq == seq
	}
	done = func() {
		cancel()
		s.mu.Lock()
		if op, ok := s.live[key]; ok && op.seq == seq {
			delete(s.live, key)
		}
		s.mu.Unlock()
	}
	return ctx, current, done
}

// AgentService serves agent lookups for the special price picker.
type AgentService struct {
	agents  AgentStore
	limit   int
	live    *Superseder
	metrics Recorder
}

// NewAgentService constructs an AgentService. limit <= 0 means 10.
func NewAgentService(agents AgentStore, limit int, metrics Recorder) *AgentService {
	if limit <= 0 {
		limit = 10
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &AgentService{agents: agents, limit: limit, live: NewSuperseder(), metrics: metrics}
}

// Search finds agents by name or company name. A newer search by the same
// caller supersedes this one, which then returns utils.ErrSuperseded instead
// of stale results.
func (s *AgentService) Search(ctx context.Context, callerKey, query string) ([]models.AgentSummary, error) {
	// An empty query still starts a search so it cancels any older one.
	sctx, current, done := s.live.Begin(ctx, callerKey)
	defer done()

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.AgentSummary{}, nil
	}

	agents, err := s.agents.Search(sctx, query, s.limit)
	if !current() {
		s.metrics.SearchSuperseded()
		log.Debug().Str("caller", callerKey).Str("query", query).Msg("Agent search superseded")
		return nil, utils.ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []models.AgentSummary{}
	}
	return agents, nil
}

// GetAgent returns one agent.
func (s *AgentService) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	return s.agents.GetByID(ctx, id)
}
