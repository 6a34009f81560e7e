package inmemory

import (
	"context"
	"sync"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]*team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{
		teams: make(map[string]*team.Team),
	}
}

func (r *TeamRepository) Save(_ context.Context, t *team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *t
	r.teams[t.ID] = &clone
	return nil
}

func (r *TeamRepository) FindByID(_ context.Context, id string) (*team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[id]
	if !ok {
		return nil, team.ErrTeamNotFound
	}
	clone := *t
	return &clone, nil
}
