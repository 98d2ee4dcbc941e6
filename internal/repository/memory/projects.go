package memory

import (
	"context"
	"sync"

	"teamnotes/internal/domain"
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
)

// ProjectRepository holds project notes status in memory
type ProjectRepository struct {
	mu       sync.RWMutex
	policies map[string]notes.ProjectNotesPolicy
}

// NewProjectRepository creates a project repository seeded with policies
func NewProjectRepository(policies ...notes.ProjectNotesPolicy) *ProjectRepository {
	r := &ProjectRepository{policies: make(map[string]notes.ProjectNotesPolicy)}
	for _, p := range policies {
		r.policies[p.ProjectID] = p
	}
	return r
}

var _ repositories.ProjectRepository = (*ProjectRepository)(nil)

func (r *ProjectRepository) GetNotesPolicy(_ context.Context, projectID string) (*notes.ProjectNotesPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.policies[projectID]
	if !ok {
		return nil, domain.NewNotFoundError("project", projectID)
	}
	return &policy, nil
}

func (r *ProjectRepository) Upsert(_ context.Context, policy *notes.ProjectNotesPolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.policies[policy.ProjectID] = *policy
	return nil
}

// ActorRepository holds actors in memory
type ActorRepository struct {
	mu     sync.RWMutex
	actors map[string]notes.Actor
}

// NewActorRepository creates an actor repository seeded with actors
func NewActorRepository(actors ...notes.Actor) *ActorRepository {
	r := &ActorRepository{actors: make(map[string]notes.Actor)}
	for _, a := range actors {
		r.actors[a.ID] = a
	}
	return r
}

var _ repositories.ActorRepository = (*ActorRepository)(nil)

func (r *ActorRepository) GetByID(_ context.Context, id string) (*notes.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actor, ok := r.actors[id]
	if !ok {
		return nil, domain.NewNotFoundError("actor", id)
	}
	return &actor, nil
}

func (r *ActorRepository) Upsert(_ context.Context, actor *notes.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actors[actor.ID] = *actor
	return nil
}
