package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/your-org/diabetes-classifier/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWS scores requests over a websocket. Each incoming text frame
// carries a ScoreRequest, each outgoing frame a ScoreResponse.
func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	logger.Infof("Websocket client connected: %s", r.RemoteAddr)

	for {
		var req ScoreRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("Websocket read failed: %v", err)
			}
			return
		}
		predictions, err := h.score(r.Context(), req.Data)
		if err != nil {
			if werr := conn.WriteJSON(errorResponse{Error: err.Error()}); werr != nil {
				logger.Warnf("Websocket write failed: %v", werr)
				return
			}
			continue
		}
		if err := conn.WriteJSON(ScoreResponse{Predictions: predictions}); err != nil {
			logger.Warnf("Websocket write failed: %v", err)
			return
		}
	}
}
