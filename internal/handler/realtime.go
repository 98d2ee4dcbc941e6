package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"teamnotes/internal/domain/services"
	"teamnotes/internal/handler/sse"
	"teamnotes/internal/httputil"
	"teamnotes/internal/realtime"
)

// Inbound and control frame types on the websocket
const (
	wsJoinProject  = "join_project"
	wsLeaveProject = "leave_project"
	wsJoined       = "joined"
	wsLeft         = "left"
	wsError        = "error"
)

const (
	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 4096
	wsReplyBuffer    = 16
	authorizeTimeout = 5 * time.Second
)

// RealtimeConfig tunes the websocket and SSE transports
type RealtimeConfig struct {
	SendBuffer        int
	KeepAliveInterval time.Duration
	AllowedOrigins    []string // "*" allows any origin
	InboundRate       rate.Limit
	InboundBurst      int
}

// DefaultRealtimeConfig returns conservative transport settings
func DefaultRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{
		SendBuffer:        64,
		KeepAliveInterval: sse.DefaultConfig().KeepAliveInterval,
		InboundRate:       5,
		InboundBurst:      10,
	}
}

// RealtimeHandler serves the websocket and SSE feeds backed by the hub
type RealtimeHandler struct {
	notesService services.NotesService
	hub          *realtime.Hub
	cfg          RealtimeConfig
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(notesService services.NotesService, hub *realtime.Hub, cfg RealtimeConfig, logger *slog.Logger) *RealtimeHandler {
	h := &RealtimeHandler{
		notesService: notesService,
		hub:          hub,
		cfg:          cfg,
		logger:       logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *RealtimeHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

type readyPayload struct {
	ProjectID string `json:"projectId"`
}

// Stream pushes the project's events via Server-Sent Events
// GET /api/notes/{projectId}/stream
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "projectId", "Project ID")
	if !ok {
		return
	}

	actor, err := h.notesService.Authorize(r.Context(), projectID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	client := realtime.NewClient(actor.ID, actor.Role, h.cfg.SendBuffer)
	if err := h.hub.Join(client, projectID); err != nil {
		handleError(w, err)
		return
	}
	defer h.hub.Remove(client)

	writer, err := sse.NewWriter(w)
	if err != nil {
		h.logger.Warn("SSE stream unavailable", "project_id", projectID, "error", err)
		return
	}

	h.logger.Info("SSE stream opened",
		"client_id", client.ID(),
		"actor_id", actor.ID,
		"project_id", projectID,
	)

	if err := writer.WriteEvent(0, "ready", readyPayload{ProjectID: projectID}); err != nil {
		return
	}

	ticker := time.NewTicker(h.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("SSE client disconnected", "client_id", client.ID())
			return
		case <-client.Done():
			h.logger.Info("SSE client dropped by hub", "client_id", client.ID())
			return
		case msg := <-client.Messages():
			if err := writer.WriteEvent(msg.Seq, string(msg.Type), msg); err != nil {
				h.logger.Debug("SSE write failed", "client_id", client.ID(), "error", err)
				return
			}
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				h.logger.Debug("SSE keep-alive failed", "client_id", client.ID(), "error", err)
				return
			}
		}
	}
}

// wsInbound is a client frame
type wsInbound struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
}

// wsReply acknowledges or rejects a client frame
type wsReply struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WebSocket upgrades the connection and serves join/leave requests
// GET /api/ws
func (h *RealtimeHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	actor, err := h.notesService.CurrentActor(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		h:       h,
		conn:    conn,
		client:  realtime.NewClient(actor.ID, actor.Role, h.cfg.SendBuffer),
		replies: make(chan wsReply, wsReplyBuffer),
		limiter: rate.NewLimiter(h.cfg.InboundRate, h.cfg.InboundBurst),
	}

	h.logger.Info("websocket connected", "client_id", c.client.ID(), "actor_id", actor.ID)

	go c.writePump()
	c.readPump(r.Context())

	h.hub.Remove(c.client)
	h.logger.Info("websocket disconnected", "client_id", c.client.ID(), "actor_id", actor.ID)
}

// wsConn owns one websocket. readPump runs on the handler goroutine and is the
// only reader; writePump is the only writer.
type wsConn struct {
	h       *RealtimeHandler
	conn    *websocket.Conn
	client  *realtime.Client
	replies chan wsReply
	limiter *rate.Limiter
}

func (c *wsConn) pongWait() time.Duration {
	return 2 * c.h.cfg.KeepAliveInterval
}

func (c *wsConn) readPump(ctx context.Context) {
	c.conn.SetReadLimit(wsMaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.h.logger.Debug("websocket read failed", "client_id", c.client.ID(), "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.reply(wsReply{Type: wsError, Error: "rate_limited"})
			continue
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(wsReply{Type: wsError, Error: "invalid message"})
			continue
		}

		c.handle(ctx, msg)
	}
}

func (c *wsConn) handle(ctx context.Context, msg wsInbound) {
	if msg.ProjectID == "" {
		c.reply(wsReply{Type: wsError, Error: "projectId is required"})
		return
	}

	switch msg.Type {
	case wsJoinProject:
		authCtx, cancel := context.WithTimeout(ctx, authorizeTimeout)
		defer cancel()

		if _, err := c.h.notesService.Authorize(authCtx, msg.ProjectID, c.client.ActorID()); err != nil {
			c.reply(wsReply{Type: wsError, ProjectID: msg.ProjectID, Error: err.Error()})
			return
		}
		if err := c.h.hub.Join(c.client, msg.ProjectID); err != nil {
			c.reply(wsReply{Type: wsError, ProjectID: msg.ProjectID, Error: err.Error()})
			return
		}
		c.reply(wsReply{Type: wsJoined, ProjectID: msg.ProjectID})

	case wsLeaveProject:
		c.h.hub.Leave(c.client, msg.ProjectID)
		c.reply(wsReply{Type: wsLeft, ProjectID: msg.ProjectID})

	default:
		c.reply(wsReply{Type: wsError, ProjectID: msg.ProjectID, Error: "unknown message type"})
	}
}

// reply never blocks the reader; a client that stops reading its replies is dropped
func (c *wsConn) reply(r wsReply) {
	select {
	case c.replies <- r:
	default:
		c.client.Close()
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.h.cfg.KeepAliveInterval)
	defer func() {
		ticker.Stop()
		// Unblocks readPump, which then removes the client from the hub
		c.conn.Close()
	}()

	for {
		select {
		case <-c.client.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(wsWriteWait))
			return

		case msg := <-c.client.Messages():
			if err := c.write(msg); err != nil {
				return
			}

		case r := <-c.replies:
			if err := c.write(r); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) write(v interface{}) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteJSON(v); err != nil {
		c.h.logger.Debug("websocket write failed", "client_id", c.client.ID(), "error", err)
		return err
	}
	return nil
}
