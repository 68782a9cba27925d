package websockets

import (
	"net/http"

	"github.com/chris/money-movement/pkg/websockets"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler upgrades view connections and hands them to the hub.
type Handler struct {
	connManager websockets.ConnectionManager
	logger      *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(connManager websockets.ConnectionManager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		connManager: connManager,
		logger:      logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Views are served from a different origin in local development.
		return true
	},
}

// ServeHTTP streams cues to the caller until it disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	connectionID := uuid.New().String()
	ctx := r.Context()
	if err := h.connManager.AddConnection(ctx, connectionID, conn); err != nil {
		h.logger.Error("failed to register connection", zap.String("connection_id", connectionID), zap.Error(err))
		return
	}
	defer func() {
		if err := h.connManager.RemoveConnection(ctx, connectionID); err != nil {
			h.logger.Error("failed to remove connection", zap.String("connection_id", connectionID), zap.Error(err))
		}
	}()

	// Clients never send anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("unexpected close error", zap.String("connection_id", connectionID), zap.Error(err))
			}
			break
		}
	}
}
