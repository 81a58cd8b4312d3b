package handler

import (
	"net/http"

	"algoarena/internal/app/broadcast"
	"algoarena/internal/app/service"
	"algoarena/internal/common"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
)

// WsHandler upgrades leaderboard viewers onto the broadcast hub.
type WsHandler struct {
	hub            *broadcast.Hub
	contestService *service.ContestService
}

func NewWsHandler(hub *broadcast.Hub, contestService *service.ContestService) *WsHandler {
	return &WsHandler{hub: hub, contestService: contestService}
}

func (h *WsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/contests/{contestID}", h.subscribeContest)
}

func (h *WsHandler) subscribeContest(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")
	if _, err := h.contestService.GetContest(r.Context(), contestID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return // Accept already wrote the handshake error
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	h.hub.ServeConn(r.Context(), conn, contestID)
	conn.Close(websocket.StatusNormalClosure, "")
}
