package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"millennium-sync/pkg/config"
	"millennium-sync/pkg/database"
	"millennium-sync/pkg/middleware"
	"millennium-sync/pkg/models"
	"millennium-sync/pkg/utils"
)

// AuthHandler serves the auth endpoints: token issuance, signup, identity
// and logout. The wire shapes match the hosted auth service so the client
// driver works against either backend unchanged.
type AuthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
	jwt    *utils.JWTService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(cfg *config.Config, db database.DatabaseInterface) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		db:     db,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
	}
}

// Token handles POST /auth/v1/token. The grant_type query parameter selects
// the flow: password exchanges credentials, refresh_token rotates the access
// token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("grant_type") {
	case "password":
		h.passwordGrant(w, r)
	case "refresh_token":
		h.refreshGrant(w, r)
	default:
		utils.WriteBadRequestResponse(w, "unsupported grant_type")
	}
}

func (h *AuthHandler) passwordGrant(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordGrantRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "email and password are required")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		// same message for unknown user and wrong password
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid login credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid login credentials")
		return
	}

	h.writeTokenResponse(w, user)
}

func (h *AuthHandler) refreshGrant(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordGrantRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		utils.WriteBadRequestResponse(w, "refresh_token is required")
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Invalid or expired refresh token: "+err.Error())
		return
	}

	user, err := h.db.GetUserByID(claims.UserID)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User no longer exists")
		return
	}

	h.writeTokenResponse(w, user)
}

func (h *AuthHandler) writeTokenResponse(w http.ResponseWriter, user *models.User) {
	accessToken, refreshToken, expiresIn, err := h.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate tokens")
		return
	}

	utils.WriteSuccessResponse(w, models.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// SignUp handles POST /auth/v1/signup. It creates the account and returns
// the user; no session is established.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		utils.WriteBadRequestResponse(w, "A valid email is required")
		return
	}
	if len(req.Password) < 6 {
		utils.WriteBadRequestResponse(w, "Password should be at least 6 characters")
		return
	}

	if _, err := h.db.GetUserByEmail(req.Email); err == nil {
		utils.WriteConflictResponse(w, "User already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hash),
	}
	if err := h.db.CreateUser(user); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to create user: "+err.Error())
		return
	}

	utils.WriteSuccessResponse(w, user)
}

// GetUser handles GET /auth/v1/user, returning the identity behind the
// access token. Sits behind AuthMiddleware.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	authed, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return
	}

	user, err := h.db.GetUserByID(authed.ID)
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "User no longer exists")
		return
	}

	utils.WriteSuccessResponse(w, user)
}

// Logout handles POST /auth/v1/logout. Tokens are stateless, so revocation
// is a client-side act; the endpoint exists for wire compatibility.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.WriteNoContentResponse(w)
}

// HealthCheck reports service and storage health
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(); err != nil {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "Database unavailable: "+err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]string{"status": "ok"})
}
