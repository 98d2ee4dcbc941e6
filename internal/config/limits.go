package config

import "time"

const (
	// MaxAttachmentsPerNote caps attachment metadata on a root note.
	MaxAttachmentsPerNote = 5

	// MaxNoteContentLength is the maximum note body length in runes.
	// Notes are chat-sized; longer text belongs in an attached document.
	MaxNoteContentLength = 10000

	// MaxAttachmentNameLength fits attachment names in VARCHAR(255).
	MaxAttachmentNameLength = 255

	// MaxAttachmentURLLength bounds stored attachment URLs.
	MaxAttachmentURLLength = 2048

	// MaxAttachmentTypeLength bounds MIME type strings.
	MaxAttachmentTypeLength = 255

	// AuthorDeleteWindow is how long an author may delete their own note.
	// At exactly this age the right is gone; admins are not bound by it.
	AuthorDeleteWindow = time.Hour
)
