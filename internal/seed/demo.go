// Package seed provides demo projects, actors and notes for local runs.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
	"teamnotes/internal/domain/services"
)

// Demo project IDs, one per notes status
const (
	ProjectEnabled  = "11111111-1111-1111-1111-111111111111"
	ProjectReadOnly = "22222222-2222-2222-2222-222222222222"
	ProjectDisabled = "33333333-3333-3333-3333-333333333333"
)

// Projects returns one demo project per notes status
func Projects() []notes.ProjectNotesPolicy {
	return []notes.ProjectNotesPolicy{
		{ProjectID: ProjectEnabled, NotesStatus: notes.NotesEnabled},
		{ProjectID: ProjectReadOnly, NotesStatus: notes.NotesReadOnly},
		{ProjectID: ProjectDisabled, NotesStatus: notes.NotesDisabled},
	}
}

// Actors returns one demo actor per role. In dev the ID doubles as the bearer token.
func Actors() []notes.Actor {
	return []notes.Actor{
		{ID: "client-demo", Role: notes.RoleClient, DisplayName: "Demo Client"},
		{ID: "translator-demo", Role: notes.RoleTranslator, DisplayName: "Demo Translator"},
		{ID: "admin-demo", Role: notes.RoleAdmin, DisplayName: "Demo Admin"},
		{ID: "superadmin-demo", Role: notes.RoleSuperAdmin, DisplayName: "Demo Super Admin"},
	}
}

// Seeder writes the demo data through the repository and service layers
type Seeder struct {
	projects repositories.ProjectRepository
	actors   repositories.ActorRepository
	logger   *slog.Logger
}

// NewSeeder creates a new demo data seeder
func NewSeeder(projects repositories.ProjectRepository, actors repositories.ActorRepository, logger *slog.Logger) *Seeder {
	return &Seeder{
		projects: projects,
		actors:   actors,
		logger:   logger,
	}
}

// SeedDirectory upserts the demo projects and actors
func (s *Seeder) SeedDirectory(ctx context.Context) error {
	for _, p := range Projects() {
		if err := s.projects.Upsert(ctx, &p); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ProjectID, err)
		}
	}
	for _, a := range Actors() {
		if err := s.actors.Upsert(ctx, &a); err != nil {
			return fmt.Errorf("seed actor %s: %w", a.ID, err)
		}
	}
	s.logger.Info("demo directory seeded", "projects", len(Projects()), "actors", len(Actors()))
	return nil
}

// SeedConversation posts a short thread into the enabled project, including
// one message that the contact-info policy hides.
func (s *Seeder) SeedConversation(ctx context.Context, svc services.NotesService) error {
	kickoff, err := svc.PostNote(ctx, &services.PostNoteRequest{
		ProjectID: ProjectEnabled,
		ActorID:   "admin-demo",
		Content:   "Welcome to the project. Please keep questions about the source files in this channel.",
		Attachments: []notes.Attachment{
			{Name: "style-guide.pdf", URL: "https://files.example.com/style-guide.pdf", Type: "application/pdf"},
		},
	})
	if err != nil {
		return fmt.Errorf("seed kickoff note: %w", err)
	}

	replies := []struct {
		actorID string
		content string
	}{
		{"translator-demo", "Thanks! Should product names stay in English?"},
		{"client-demo", "Yes, keep them in English. You can also reach me at client@example.com"},
	}
	for _, r := range replies {
		parentID := kickoff.Note.ID
		res, err := svc.PostNote(ctx, &services.PostNoteRequest{
			ProjectID: ProjectEnabled,
			ActorID:   r.actorID,
			Content:   r.content,
			ParentID:  &parentID,
		})
		if err != nil {
			return fmt.Errorf("seed reply from %s: %w", r.actorID, err)
		}
		s.logger.Info("seeded reply",
			"note_id", res.Note.ID,
			"author_id", r.actorID,
			"moderation_applied", res.ModerationApplied,
		)
	}
	return nil
}
