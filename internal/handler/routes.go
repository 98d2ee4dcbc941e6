package handler

import "net/http"

// RegisterRoutes mounts the notes API on mux (Go 1.22+ method patterns)
func RegisterRoutes(mux *http.ServeMux, notes *NotesHandler, rt *RealtimeHandler) {
	mux.HandleFunc("GET /health", HealthCheck)

	// Notes
	mux.HandleFunc("POST /api/notes/{projectId}", notes.PostNote)
	mux.HandleFunc("GET /api/notes/{projectId}", notes.ListNotes)
	mux.HandleFunc("GET /api/notes/{projectId}/capabilities", notes.Capabilities)
	mux.HandleFunc("DELETE /api/notes/{noteId}", notes.DeleteNote)
	mux.HandleFunc("PATCH /api/notes/{noteId}/hide", notes.ToggleHide)
	mux.HandleFunc("GET /api/moderation/contact-rules", notes.ContactRules)

	// Realtime
	mux.HandleFunc("GET /api/notes/{projectId}/stream", rt.Stream)
	mux.HandleFunc("GET /api/ws", rt.WebSocket)
}
