// ABOUTME: Websocket boundary of the shared-state layer
// ABOUTME: Authenticates the raw upgrade request inline before the handshake completes

package sharedstate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/openlumi/wpgate/internal/auth"
	"github.com/openlumi/wpgate/internal/wpdb"
)

// Server owns the connection-upgrade path. The real-time synchronization
// protocol lives elsewhere; this server decides who each connection belongs
// to and what it may access, then answers access queries over the socket.
type Server struct {
	gate     *auth.Gate
	contents *ContentCache
	origins  []string
	logger   *slog.Logger
}

// NewServer creates the shared-state boundary server.
func NewServer(gate *auth.Gate, contents *ContentCache, origins []string) *Server {
	return &Server{
		gate:     gate,
		contents: contents,
		origins:  origins,
		logger:   slog.Default().With("component", "sharedstate"),
	}
}

// helloFrame is sent once after the handshake, carrying the connection's
// resolved authorization for the requested content.
type helloFrame struct {
	Type         string `json:"type"` // "hello"
	ConnectionID string `json:"connectionId"`
	Level        string `json:"level"`
	UserID       string `json:"userId,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// clientFrame is what the read loop accepts from the client.
type clientFrame struct {
	Type      string `json:"type"` // "ping" | "access"
	ContentID string `json:"contentId,omitempty"`
}

// serverFrame answers ping and access queries.
type serverFrame struct {
	Type   string `json:"type"`
	Level  string `json:"level,omitempty"`
	UserID string `json:"userId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HandleUpgrade upgrades a raw request to a websocket. The request never
// passed the middleware chain, so the full verification pipeline runs here,
// synchronously, before the upgrade is acknowledged. An unauthenticated
// caller gets a downgraded anonymous connection, not a refusal.
func (s *Server) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	identity := s.gate.AuthenticateConnection(r)

	opts := &websocket.AcceptOptions{}
	if len(s.origins) > 0 {
		opts.OriginPatterns = s.origins
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Debug("websocket accept failed", "error", err)
		return
	}

	connID := uuid.NewString()
	contentID := r.URL.Query().Get("contentId")
	s.logger.Info("shared-state connection opened",
		"connection_id", connID,
		"user", identity.Username,
		"anonymous", identity.IsAnonymous(),
	)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	hello := helloFrame{
		Type:         "hello",
		ConnectionID: connID,
		Level:        auth.LevelFor(identity, contentID).String(),
	}
	if !identity.IsAnonymous() {
		hello.UserID = identity.ID
		hello.DisplayName = identity.DisplayName
	}
	if err := wsjson.Write(ctx, conn, hello); err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
		return
	}

	s.serve(ctx, conn, identity)
	_ = conn.Close(websocket.StatusNormalClosure, "closed")
	s.logger.Info("shared-state connection closed", "connection_id", connID)
}

// serve runs the read loop until the client goes away.
func (s *Server) serve(ctx context.Context, conn *websocket.Conn, identity *auth.Identity) {
	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}

		var resp serverFrame
		switch frame.Type {
		case "ping":
			resp = serverFrame{Type: "pong"}
		case "access":
			resp = s.accessFrame(ctx, identity, frame.ContentID)
		default:
			resp = serverFrame{Type: "error", Error: "unknown frame type"}
		}

		writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
		err := wsjson.Write(writeCtx, conn, resp)
		cancelWrite()
		if err != nil {
			return
		}
	}
}

// accessFrame computes the access level for a content ID on an established
// connection. Content existence is checked through the cache so the UI can
// tell a missing content from a permission tier.
func (s *Server) accessFrame(ctx context.Context, identity *auth.Identity, contentID string) serverFrame {
	if contentID != "" {
		if _, err := s.contents.Content(ctx, contentID); err != nil {
			if errors.Is(err, wpdb.ErrNotFound) {
				return serverFrame{Type: "access", Error: "content not found"}
			}
			return serverFrame{Type: "access", Error: "content store unavailable"}
		}
	}

	frame := serverFrame{Type: "access", Level: auth.LevelFor(identity, contentID).String()}
	if !identity.IsAnonymous() {
		frame.UserID = identity.ID
	}
	return frame
}
