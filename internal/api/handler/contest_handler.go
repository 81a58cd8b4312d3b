package handler

import (
	"net/http"
	"strconv"

	"algoarena/internal/api/middleware"
	"algoarena/internal/app/service"
	"algoarena/internal/common"

	"github.com/go-chi/chi/v5"
)

type ContestHandler struct {
	contestService *service.ContestService
}

func NewContestHandler(cs *service.ContestService) *ContestHandler {
	return &ContestHandler{contestService: cs}
}

func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listContests)
	r.Get("/{contestID}", h.getContest)
	r.Get("/{contestID}/leaderboard", h.getLeaderboard)

	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Authenticator)
		auth.Post("/", h.createContest)
		auth.Post("/{contestID}/register", h.register)
	})
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateContestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	contest, err := h.contestService.CreateContest(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, contest)
}

func (h *ContestHandler) register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reg, err := h.contestService.Register(r.Context(), userID, chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, reg)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	contest, err := h.contestService.GetContest(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contest)
}

func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	contests, err := h.contestService.ListContests(r.Context(), limit, offset)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, contests)
}

func (h *ContestHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := h.contestService.GetLeaderboard(r.Context(), chi.URLParam(r, "contestID"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, leaderboard)
}
