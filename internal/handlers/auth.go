package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stickygoals/internal/apperr"
	"stickygoals/internal/identity"
	"stickygoals/internal/models"
	"stickygoals/internal/store"
)

// AuthHandler is the built-in identity provider: local accounts with
// bcrypt-hashed passwords and HS256 session tokens.
type AuthHandler struct {
	store  store.Store
	issuer *identity.JWTIssuer
	logger *zap.Logger
}

func NewAuthHandler(s store.Store, issuer *identity.JWTIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, issuer: issuer, logger: logger}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type tokenResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

func (c *credentials) normalize() error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || c.Password == "" {
		return apperr.Invalid("email and password required")
	}
	return nil
}

// Signup godoc
// @Summary Register a local account
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} tokenResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := c.normalize(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "could not hash password", err))
		return
	}
	u := models.User{Email: c.Email, DisplayName: strings.TrimSpace(c.DisplayName), PasswordHash: string(hashed)}
	if err := h.store.CreateUser(r.Context(), &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, h.logger, apperr.Wrap(apperr.Conflict, "email already registered", err))
			return
		}
		writeError(w, h.logger, apperr.UpstreamErr("could not create user", err))
		return
	}
	h.logger.Info("user signed up", zap.String("user_id", u.ID))
	h.respondWithToken(w, u)
}

// Login godoc
// @Summary Sign in to a local account
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} tokenResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := c.normalize(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), c.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, h.logger, apperr.Unauthorized("invalid credentials"))
			return
		}
		writeError(w, h.logger, apperr.UpstreamErr("server error", err))
		return
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		writeError(w, h.logger, apperr.Unauthorized("invalid credentials"))
		return
	}
	h.respondWithToken(w, *u)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, u models.User) {
	token, err := h.issuer.Issue(identity.Identity{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, AvatarRef: u.AvatarRef})
	if err != nil {
		writeError(w, h.logger, apperr.Wrap(apperr.Internal, "could not issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: ToUserDTO(u)})
}
