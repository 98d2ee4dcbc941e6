// Package notes implements the Team Discussion notes engine: note storage
// invariants and the orchestration of policy, moderation, persistence and
// realtime publishing.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"teamnotes/internal/config"
	"teamnotes/internal/domain"
	models "teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/repositories"
	"teamnotes/internal/domain/services"
	"teamnotes/internal/metrics"
	"teamnotes/internal/moderation"
	"teamnotes/internal/policy"
	"teamnotes/internal/realtime"
)

// Publisher delivers events to a project's realtime room
type Publisher interface {
	Publish(ctx context.Context, projectID string, event realtime.Event) error
}

// Config wires the service's collaborators
type Config struct {
	Notes    repositories.NoteRepository
	Projects repositories.ProjectRepository
	Actors   repositories.ActorRepository
	Settings repositories.SystemSettingsProvider
	Hub      Publisher
	Logger   *slog.Logger
	Now      func() time.Time // defaults to time.Now
}

// notesService implements the NotesService interface
type notesService struct {
	store    *NoteStore
	projects repositories.ProjectRepository
	actors   repositories.ActorRepository
	settings repositories.SystemSettingsProvider
	hub      Publisher
	logger   *slog.Logger
	now      func() time.Time

	// projectLocks spans persist and publish so room order equals creation order.
	// noteLocks serializes delete and toggle of the same note.
	projectLocks *keyedMutex
	noteLocks    *keyedMutex
}

// NewNotesService creates a new notes service
func NewNotesService(cfg Config) services.NotesService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &notesService{
		store:        NewNoteStore(cfg.Notes, now),
		projects:     cfg.Projects,
		actors:       cfg.Actors,
		settings:     cfg.Settings,
		hub:          cfg.Hub,
		logger:       cfg.Logger,
		now:          now,
		projectLocks: newKeyedMutex(),
		noteLocks:    newKeyedMutex(),
	}
}

// projectAccess is everything the policy needs for one actor in one project
type projectAccess struct {
	actor  *models.Actor
	system models.SystemNotesSettings
	caps   policy.Capabilities
}

func (s *notesService) resolveActor(ctx context.Context, actorID string) (*models.Actor, error) {
	if actorID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing actor"}
	}
	actor, err := s.actors.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewForbiddenError("access notes", "unknown actor")
		}
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	return actor, nil
}

func (s *notesService) access(ctx context.Context, projectID string, actor *models.Actor) (*projectAccess, error) {
	system, err := s.settings.GetNotesSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load system settings: %w", err)
	}
	project, err := s.projects.GetNotesPolicy(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &projectAccess{
		actor:  actor,
		system: system,
		caps:   policy.Evaluate(system, *project, *actor),
	}, nil
}

func (s *notesService) accessFor(ctx context.Context, projectID, actorID string) (*projectAccess, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.access(ctx, projectID, actor)
}

// PostNote creates a root note or reply
func (s *notesService) PostNote(ctx context.Context, req *services.PostNoteRequest) (*services.PostNoteResult, error) {
	if err := validatePostRequest(req); err != nil {
		metrics.TrackNoteOperation("post", "invalid")
		return nil, err
	}

	acc, err := s.accessFor(ctx, req.ProjectID, req.ActorID)
	if err != nil {
		s.track("post", err)
		return nil, err
	}

	isReply := req.ParentID != nil
	switch {
	case !isReply && !acc.caps.CanCreateRoot:
		metrics.TrackNoteOperation("post", "forbidden")
		return nil, domain.NewForbiddenError("create note", "posting is not allowed in this project")
	case isReply && !acc.caps.CanReply:
		metrics.TrackNoteOperation("post", "forbidden")
		return nil, domain.NewForbiddenError("reply", "replies are not allowed in this project")
	}

	if len(req.Attachments) > 0 && !acc.system.AllowAttachments {
		metrics.TrackNoteOperation("post", "invalid")
		return nil, domain.NewValidationError("attachments", "attachments are disabled")
	}

	moderated := moderation.Applies(acc.system, acc.actor.Role) && moderation.ViolatesContactPolicy(req.Content)

	draft := &models.Note{
		ProjectID:         req.ProjectID,
		AuthorID:          acc.actor.ID,
		AuthorRole:        acc.actor.Role,
		AuthorDisplayName: acc.actor.DisplayName,
		Content:           req.Content,
		ParentID:          req.ParentID,
		Attachments:       req.Attachments,
		IsHidden:          moderated,
	}

	// the write is authoritative once gating passed; an abandoned request
	// must not cancel persist or publish
	ctx = context.WithoutCancel(ctx)

	unlock := s.projectLocks.Lock(req.ProjectID)
	note, err := s.store.Create(ctx, draft)
	if err != nil {
		unlock()
		s.track("post", err)
		return nil, err
	}
	s.publish(ctx, realtime.NoteNew(note))
	unlock()

	outcome := "ok"
	if moderated {
		outcome = "moderated"
	}
	metrics.TrackNoteOperation("post", outcome)

	s.logger.Info("note created",
		"note_id", note.ID,
		"project_id", note.ProjectID,
		"author_id", note.AuthorID,
		"reply", isReply,
		"moderation_applied", moderated,
	)

	return &services.PostNoteResult{
		Note:              policy.Present(note, acc.actor.Role),
		ModerationApplied: moderated,
	}, nil
}

// ListNotes returns the project's notes rendered for the actor
func (s *notesService) ListNotes(ctx context.Context, projectID, actorID string) ([]models.NoteView, error) {
	acc, err := s.accessFor(ctx, projectID, actorID)
	if err != nil {
		s.track("list", err)
		return nil, err
	}
	if !acc.caps.CanView {
		metrics.TrackNoteOperation("list", "forbidden")
		return nil, domain.NewForbiddenError("view notes", "notes are not available in this project")
	}

	list, err := s.store.List(ctx, projectID)
	if err != nil {
		s.track("list", err)
		return nil, err
	}
	metrics.TrackNoteOperation("list", "ok")
	return policy.PresentAll(list, acc.actor.Role), nil
}

// ListThreads groups ListNotes into threads
func (s *notesService) ListThreads(ctx context.Context, projectID, actorID string) ([]models.Thread, error) {
	views, err := s.ListNotes(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	return policy.GroupThreads(views), nil
}

// DeleteNote removes a note the actor may delete
func (s *notesService) DeleteNote(ctx context.Context, noteID, actorID string) ([]string, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		s.track("delete", err)
		return nil, err
	}

	note, err := s.store.Get(ctx, noteID)
	if err != nil {
		s.track("delete", err)
		return nil, err
	}

	unlockProject := s.projectLocks.Lock(note.ProjectID)
	defer unlockProject()
	unlockNote := s.noteLocks.Lock(noteID)
	defer unlockNote()

	// re-read under the lock: a concurrent delete may have won
	note, err = s.store.Get(ctx, noteID)
	if err != nil {
		s.track("delete", err)
		return nil, err
	}

	if err := s.requireView(ctx, note.ProjectID, actor); err != nil {
		s.track("delete", err)
		return nil, err
	}
	if !policy.CanDelete(*actor, note, s.now()) {
		metrics.TrackNoteOperation("delete", "forbidden")
		return nil, domain.NewForbiddenError("delete note", "you can no longer delete this note")
	}

	removed, err := s.store.Delete(ctx, noteID)
	if err != nil {
		s.track("delete", err)
		return nil, err
	}
	s.publish(context.WithoutCancel(ctx), realtime.NoteDeleted(note.ProjectID, removed))
	metrics.TrackNoteOperation("delete", "ok")

	s.logger.Info("note deleted",
		"note_id", noteID,
		"project_id", note.ProjectID,
		"actor_id", actor.ID,
		"removed", len(removed),
	)
	return removed, nil
}

// ToggleHide flips a note's hidden flag for admins
func (s *notesService) ToggleHide(ctx context.Context, noteID, actorID string) (*models.NoteView, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		s.track("toggle_hide", err)
		return nil, err
	}
	if !actor.Role.IsAdmin() {
		metrics.TrackNoteOperation("toggle_hide", "forbidden")
		return nil, domain.NewForbiddenError("hide note", "only administrators can hide notes")
	}

	note, err := s.store.Get(ctx, noteID)
	if err != nil {
		s.track("toggle_hide", err)
		return nil, err
	}

	// same order as DeleteNote; the project lock keeps note_visibility
	// behind a note_new that is still being published
	unlockProject := s.projectLocks.Lock(note.ProjectID)
	defer unlockProject()
	unlockNote := s.noteLocks.Lock(noteID)
	defer unlockNote()

	note, err = s.store.ToggleHidden(ctx, noteID)
	if err != nil {
		s.track("toggle_hide", err)
		return nil, err
	}
	s.publish(context.WithoutCancel(ctx), realtime.NoteVisibility(note))
	metrics.TrackNoteOperation("toggle_hide", "ok")

	s.logger.Info("note visibility toggled",
		"note_id", note.ID,
		"project_id", note.ProjectID,
		"actor_id", actor.ID,
		"is_hidden", note.IsHidden,
	)

	view := policy.Present(note, actor.Role)
	return &view, nil
}

// Capabilities reports the actor's permissions in a project
func (s *notesService) Capabilities(ctx context.Context, projectID, actorID string) (*policy.Capabilities, error) {
	acc, err := s.accessFor(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	return &acc.caps, nil
}

// CurrentActor resolves the actor behind a realtime connection
func (s *notesService) CurrentActor(ctx context.Context, actorID string) (*models.Actor, error) {
	return s.resolveActor(ctx, actorID)
}

// Authorize checks the actor may view the project before a realtime join
func (s *notesService) Authorize(ctx context.Context, projectID, actorID string) (*models.Actor, error) {
	acc, err := s.accessFor(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !acc.caps.CanView {
		return nil, domain.NewForbiddenError("join project", "notes are not available in this project")
	}
	return acc.actor, nil
}

// requireView rejects non-admins who cannot view the project
func (s *notesService) requireView(ctx context.Context, projectID string, actor *models.Actor) error {
	if actor.Role.IsAdmin() {
		return nil
	}
	acc, err := s.access(ctx, projectID, actor)
	if err != nil {
		return err
	}
	if !acc.caps.CanView {
		return domain.NewForbiddenError("delete note", "notes are not available in this project")
	}
	return nil
}

// publish is best effort; persisted state is authoritative and clients
// catch up on their next list
func (s *notesService) publish(ctx context.Context, event realtime.Event) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Publish(ctx, event.ProjectID, event); err != nil {
		s.logger.Warn("realtime publish failed",
			"type", event.Type,
			"project_id", event.ProjectID,
			"error", err,
		)
	}
}

// track records a failed operation by error class
func (s *notesService) track(operation string, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		outcome = "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		outcome = "not_found"
	default:
		s.logger.Error("note operation failed", "operation", operation, "error", err)
	}
	metrics.TrackNoteOperation(operation, outcome)
}

func validatePostRequest(req *services.PostNoteRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Content, validation.RuneLength(0, config.MaxNoteContentLength)),
		validation.Field(&req.Attachments,
			validation.Length(0, config.MaxAttachmentsPerNote),
			validation.Each(validation.By(validateAttachment)),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateAttachment(value interface{}) error {
	a, ok := value.(models.Attachment)
	if !ok {
		return errors.New("invalid attachment")
	}
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.RuneLength(1, config.MaxAttachmentNameLength)),
		validation.Field(&a.URL,
			validation.Required,
			validation.Length(1, config.MaxAttachmentURLLength),
			is.URL,
			validation.By(httpScheme),
		),
		validation.Field(&a.Type, validation.RuneLength(0, config.MaxAttachmentTypeLength)),
	)
}

// httpScheme requires an absolute http(s) URL
func httpScheme(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http or https URL")
	}
	return nil
}
