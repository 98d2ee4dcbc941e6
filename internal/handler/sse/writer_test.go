package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	rec := httptest.NewRecorder()

	w, err := NewWriter(rec)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	require.NoError(t, w.WriteEvent(3, "note_new", map[string]string{"id": "n1"}))
	require.NoError(t, w.WriteKeepAlive())
	require.NoError(t, w.WriteEvent(0, "ready", map[string]string{"projectId": "p1"}))

	assert.Equal(t,
		"id: 3\nevent: note_new\ndata: {\"id\":\"n1\"}\n\n"+
			": keepalive\n\n"+
			"event: ready\ndata: {\"projectId\":\"p1\"}\n\n",
		rec.Body.String())
	assert.True(t, rec.Flushed)
}
