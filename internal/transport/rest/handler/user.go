package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mathbattle/internal/model"
	"mathbattle/internal/service"
	"mathbattle/internal/transport/rest/middleware"
)

// UserHandler handles profile, shop and leaderboard endpoints.
type UserHandler struct {
	profileSvc *service.ProfileService
	authSvc    *service.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(profileSvc *service.ProfileService, authSvc *service.AuthService) *UserHandler {
	return &UserHandler{profileSvc: profileSvc, authSvc: authSvc}
}

// Login handles POST /api/login. A name is an identity; the token just binds
// later profile mutations to it.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "需要提供名称")
		return
	}

	user, err := h.profileSvc.GetOrCreate(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := h.authSvc.IssuePlayerToken(req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResponse{Token: token, User: user})
}

// GetUser handles GET /api/user
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "需要提供名称")
		return
	}
	user, err := h.profileSvc.GetOrCreate(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SaveResult handles POST /api/result
func (h *UserHandler) SaveResult(w http.ResponseWriter, r *http.Request) {
	name := middleware.GetPlayerName(r.Context())
	var req struct {
		Result model.GameResult `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.profileSvc.SaveResult(r.Context(), name, req.Result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Action handles POST /api/action
func (h *UserHandler) Action(w http.ResponseWriter, r *http.Request) {
	name := middleware.GetPlayerName(r.Context())
	var req struct {
		Action  string                `json:"action"`
		Payload service.ActionPayload `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := h.profileSvc.Action(r.Context(), name, req.Action, req.Payload)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, "未找到用户数据，请重新登录")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard handles GET /api/leaderboard
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := 50
	if s := r.URL.Query().Get("top"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			top = n
		}
	}
	entries, err := h.profileSvc.Leaderboard(r.Context(), top)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
