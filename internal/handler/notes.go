package handler

import (
	"log/slog"
	"net/http"

	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/domain/services"
	"teamnotes/internal/httputil"
	"teamnotes/internal/moderation"
)

// NoticeHiddenByPolicy tells the author their note was hidden by moderation
const NoticeHiddenByPolicy = "hidden_by_policy"

// NotesHandler handles Team Discussion HTTP requests
type NotesHandler struct {
	notesService services.NotesService
	logger       *slog.Logger
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(notesService services.NotesService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{
		notesService: notesService,
		logger:       logger,
	}
}

type postNoteResponse struct {
	Note              notes.NoteView `json:"note"`
	ModerationApplied bool           `json:"moderationApplied"`
	Notice            string         `json:"notice,omitempty"`
}

type deleteNoteResponse struct {
	Deleted []string `json:"deleted"`
}

// PostNote creates a root note or a reply
// POST /api/notes/{projectId}
func (h *NotesHandler) PostNote(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "projectId", "Project ID")
	if !ok {
		return
	}

	var req services.PostNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID
	req.ActorID = httputil.GetUserID(r)

	result, err := h.notesService.PostNote(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := postNoteResponse{Note: result.Note, ModerationApplied: result.ModerationApplied}
	if result.ModerationApplied {
		resp.Notice = NoticeHiddenByPolicy
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// ListNotes returns the project's feed rendered for the caller
// GET /api/notes/{projectId}?view=threads
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "projectId", "Project ID")
	if !ok {
		return
	}
	actorID := httputil.GetUserID(r)

	switch view := r.URL.Query().Get("view"); view {
	case "", "flat":
		list, err := h.notesService.ListNotes(r.Context(), projectID, actorID)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, list)
	case "threads":
		threads, err := h.notesService.ListThreads(r.Context(), projectID, actorID)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, threads)
	default:
		httputil.RespondError(w, http.StatusBadRequest, "view must be 'flat' or 'threads'")
	}
}

// Capabilities reports what the caller may do in the project
// GET /api/notes/{projectId}/capabilities
func (h *NotesHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "projectId", "Project ID")
	if !ok {
		return
	}

	caps, err := h.notesService.Capabilities(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, caps)
}

// DeleteNote hard-deletes a note and, for roots, its replies
// DELETE /api/notes/{noteId}
func (h *NotesHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, ok := PathParam(w, r, "noteId", "Note ID")
	if !ok {
		return
	}

	deleted, err := h.notesService.DeleteNote(r.Context(), noteID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, deleteNoteResponse{Deleted: deleted})
}

// ToggleHide flips a note's hidden flag
// PATCH /api/notes/{noteId}/hide
func (h *NotesHandler) ToggleHide(w http.ResponseWriter, r *http.Request) {
	noteID, ok := PathParam(w, r, "noteId", "Note ID")
	if !ok {
		return
	}

	view, err := h.notesService.ToggleHide(r.Context(), noteID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, view)
}

// ContactRules exposes the moderation patterns so clients can warn before sending
// GET /api/moderation/contact-rules
func (h *NotesHandler) ContactRules(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, moderation.Rules())
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
