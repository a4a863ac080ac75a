package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/api"
)

var (
	phoneRe    = regexp.MustCompile(`^09\d{9}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

type Handler struct {
	service *Service
	guard   *Guard
	log     *zap.Logger
}

func NewHandler(service *Service, guard *Guard, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

type registerRequest struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
}

type authResponse struct {
	Message      string        `json:"message"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	User         PublicProfile `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		h.log.Warn("invalid register request",
			zap.String("username", req.Username),
			zap.String("reason", msg))
		api.Error(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			api.Error(w, http.StatusConflict, "username already taken")
		case errors.Is(err, ErrPhoneTaken):
			api.Error(w, http.StatusConflict, "phone number already registered")
		default:
			h.log.Error("failed to register user", zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	pair, err := h.service.GenerateTokenPair(user)
	if err != nil {
		h.log.Error("failed to issue token", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	api.JSON(w, http.StatusCreated, authResponse{
		Message:      "user registered successfully",
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Profile(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			api.Error(w, http.StatusUnauthorized, "invalid username or password")
		case errors.Is(err, ErrAccountLocked):
			api.Error(w, http.StatusLocked, "account is locked, try again later")
		case errors.Is(err, ErrAccountDisabled):
			api.Error(w, http.StatusForbidden, "account is disabled")
		default:
			h.log.Error("login failed",
				zap.String("username", req.Username),
				zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	api.JSON(w, http.StatusOK, authResponse{
		Message:      "login successful",
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Profile(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		api.Error(w, http.StatusBadRequest, "refresh token is required")
		return
	}

	token, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.service.repository.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("failed to load profile", zap.Uint("user_id", claims.UserID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	api.JSON(w, http.StatusOK, map[string]PublicProfile{"user": user.Profile()})
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.repository.ListUsers(r.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	profiles := make([]PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	api.JSON(w, http.StatusOK, map[string][]PublicProfile{"users": profiles})
}

type adminUpdateUserRequest struct {
	IsActive *bool   `json:"isActive"`
	IsBanned *bool   `json:"isBanned"`
	Role     *string `json:"role"`
}

// AdminUpdateUser applies a partial moderation update: only the fields
// present in the request body are written.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]interface{}{}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if req.IsBanned != nil {
		fields["is_banned"] = *req.IsBanned
	}
	if req.Role != nil {
		role := Role(*req.Role)
		if !role.Valid() {
			api.Error(w, http.StatusBadRequest, "invalid role")
			return
		}
		fields["role"] = role
	}
	if len(fields) == 0 {
		api.Error(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.service.repository.UpdateUser(r.Context(), userID, fields); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("failed to update user", zap.Uint("user_id", userID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "user updated successfully"})
}

func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	userID, err := userIDParam(r)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.guard.CanDeleteUser(r.Context(), claims, userID); err != nil {
		switch {
		case errors.Is(err, ErrUserHasAds):
			api.Error(w, http.StatusConflict, "cannot delete a user who still owns ads")
		case errors.Is(err, ErrForbidden):
			api.Error(w, http.StatusForbidden, "admin access required")
		default:
			h.log.Error("delete-user check failed", zap.Uint("user_id", userID), zap.Error(err))
			api.Error(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}

	if err := h.service.repository.DeleteUser(r.Context(), userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("failed to delete user", zap.Uint("user_id", userID), zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})
}

func userIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "userID"), 10, 32)
	return uint(id), err
}

func validateRegisterRequest(req *registerRequest) string {
	if req.Name == "" || req.Phone == "" || req.Username == "" || req.Password == "" {
		return "all required fields must be filled"
	}
	if len(req.Password) < 6 {
		return "password must be at least 6 characters"
	}
	if !phoneRe.MatchString(req.Phone) {
		return "phone number must match the format 09xxxxxxxxx"
	}
	if !usernameRe.MatchString(req.Username) {
		return "username may only contain letters, digits and _"
	}
	return ""
}
