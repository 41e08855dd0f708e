package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkamath/calshare/internal/auth"
	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/sharetoken"
	"github.com/nkamath/calshare/internal/storage"
	"github.com/nkamath/calshare/libs/config"
)

type AuthHandler struct {
	users     *storage.UserRepository
	calendars *storage.CalendarRepository
	signer    *auth.Signer
	defaults  config.CalendarDefaults
	logger    *slog.Logger
}

func NewAuthHandler(
	users *storage.UserRepository,
	calendars *storage.CalendarRepository,
	signer *auth.Signer,
	defaults config.CalendarDefaults,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		calendars: calendars,
		signer:    signer,
		defaults:  defaults,
		logger:    logger,
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	Calendar    calendarView `json:"calendar"`
}

// Register creates the owner account and their calendar in one
// transaction; an account without a calendar cannot exist.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		badRequest(w, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		badRequest(w, "password must be at least 8 characters")
		return
	}
	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = h.defaults.Timezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		badRequest(w, "unknown timezone")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hash failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	token, err := sharetoken.Issue()
	if err != nil {
		h.logger.Error("share token issue failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}
	cal := model.Calendar{
		ID:         uuid.NewString(),
		OwnerID:    user.ID,
		ShareToken: token,
		Timezone:   timezone,
		WorkingHours: model.WorkingHours{
			Start: h.defaults.WorkdayStart,
			End:   h.defaults.WorkdayEnd,
		},
		DefaultDurationMinutes: h.defaults.DurationMinutes,
	}

	ctx := r.Context()
	if err := h.calendars.CreateOwnerAndCalendar(ctx, &user, &cal); err != nil {
		if storage.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
			return
		}
		h.logger.Error("registration failed", "err", err)
		writeDomainError(w, err)
		return
	}

	accessToken, err := h.signer.Sign(user.ID, time.Now())
	if err != nil {
		h.logger.Error("token sign failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.logger.Info("owner registered", "user_id", user.ID, "calendar_id", cal.ID)
	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Calendar:    ownerCalendarView(cal),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json body")
		return
	}

	ctx := r.Context()
	user, err := h.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}
	cal, err := h.calendars.GetByOwner(ctx, user.ID)
	if err != nil {
		h.logger.Error("calendar lookup failed", "err", err, "user_id", user.ID)
		writeDomainError(w, err)
		return
	}

	accessToken, err := h.signer.Sign(user.ID, time.Now())
	if err != nil {
		h.logger.Error("token sign failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Calendar:    ownerCalendarView(cal),
	})
}
