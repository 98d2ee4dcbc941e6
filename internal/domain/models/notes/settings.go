package notes

import "strings"

// Role is the actor's role as reported by the identity collaborator
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleTranslator Role = "TRANSLATOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsAdmin reports whether the role moderates the channel
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole normalizes a stored role. Unknown values map to CLIENT, the least privileged role.
func ParseRole(value string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleTranslator:
		return RoleTranslator
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleClient
	}
}

// Actor is the current identity behind a request. Role is looked up per request,
// it is not the snapshot stored on notes.
type Actor struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
}

// NotesStatus is the per-project feature switch
type NotesStatus string

const (
	NotesEnabled  NotesStatus = "ENABLED"
	NotesReadOnly NotesStatus = "READ_ONLY"
	NotesDisabled NotesStatus = "DISABLED"
)

// ParseNotesStatus normalizes a stored status; unknown values are treated as DISABLED.
func ParseNotesStatus(value string) NotesStatus {
	switch NotesStatus(strings.ToUpper(strings.TrimSpace(value))) {
	case NotesEnabled:
		return NotesEnabled
	case NotesReadOnly:
		return NotesReadOnly
	default:
		return NotesDisabled
	}
}

// ProjectNotesPolicy is owned by the project collaborator and consumed read-only
type ProjectNotesPolicy struct {
	ProjectID   string      `json:"projectId" db:"id"`
	NotesStatus NotesStatus `json:"notesStatus" db:"notes_status"`
}

// SystemNotesSettings are global switches owned by the settings collaborator
type SystemNotesSettings struct {
	SystemEnabled       bool `json:"notes_system_enabled" yaml:"notes_system_enabled"`
	RepliesEnabled      bool `json:"notes_replies_enabled" yaml:"notes_replies_enabled"`
	AllowAttachments    bool `json:"notes_allow_attachments" yaml:"notes_allow_attachments"`
	ModerateContactInfo bool `json:"ai_moderation_contact_info" yaml:"ai_moderation_contact_info"`
}

// DefaultSystemNotesSettings enables the feed with replies and attachments, moderation on
func DefaultSystemNotesSettings() SystemNotesSettings {
	return SystemNotesSettings{
		SystemEnabled:       true,
		RepliesEnabled:      true,
		AllowAttachments:    true,
		ModerateContactInfo: true,
	}
}
