package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aistone/edge-backend/internal/api/middleware"
	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	// exposeResetURL returns the reset link in the response body. Only
	// outside production, where no mail is sent.
	exposeResetURL bool
}

func NewAuthHandler(authService ports.AuthService, exposeResetURL bool) *AuthHandler {
	return &AuthHandler{authService: authService, exposeResetURL: exposeResetURL}
}

// --- Request / Response types ---

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type googleOAuthRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state"`
}

// userResponse is the public projection of a user; secrets never leave the service.
type userResponse struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	AuthProvider string     `json:"authProvider"`
	Avatar       string     `json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

type authResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Token    string        `json:"token,omitempty"`
	User     *userResponse `json:"user,omitempty"`
	ResetURL string        `json:"resetUrl,omitempty"`
}

type googleConfigResponse struct {
	Success     bool     `json:"success"`
	Configured  bool     `json:"configured"`
	ClientID    string   `json:"clientId,omitempty"`
	RedirectURI string   `json:"redirectUri,omitempty"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		AuthProvider: u.Provider(),
		Avatar:       u.Avatar(),
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
	}
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// Register creates a new email/password account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Success: true,
		Message: "registration successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// Validate reports the user behind the presented token. A legacy token is
// answered with its replacement in the token field.
//
// @Summary      Validate token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/auth/validate [get]
func (h *AuthHandler) Validate(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	rotated, _ := c.Get(middleware.ContextRotatedToken).(string)

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Token:   rotated,
		User:    toUserResponse(user),
	})
}

// ForgotPassword issues a reset ticket. The answer is the same for unknown emails.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	resp := authResponse{
		Success: true,
		Message: "if the email is registered, a password reset link has been sent",
	}
	if h.exposeResetURL {
		resp.ResetURL = res.URL
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPassword consumes a reset ticket and sets a new password.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset token and new password"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "password reset successful, please login with your new password",
	})
}

// GoogleLogin signs in with a Google ID token.
//
// @Summary      Google sign-in with ID token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleLoginRequest  true  "Google ID token"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      503   {object}  ErrorResponse
// @Router       /api/auth/google-login [post]
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.GoogleLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "google login successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// GoogleOAuth completes the authorization-code flow.
//
// @Summary      Google sign-in with authorization code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      googleOAuthRequest  true  "Authorization code"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      503   {object}  ErrorResponse
// @Router       /api/auth/google-oauth [post]
func (h *AuthHandler) GoogleOAuth(c echo.Context) error {
	var req googleOAuthRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.GoogleOAuth(c.Request().Context(), req.Code)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "google login successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// GoogleConfig reports the resolved Google OAuth configuration for operators.
//
// @Summary      Google OAuth configuration diagnostics
// @Tags         auth
// @Produce      json
// @Success      200  {object}  googleConfigResponse
// @Router       /api/auth/google/config [get]
func (h *AuthHandler) GoogleConfig(c echo.Context) error {
	cfg := h.authService.GoogleConfig()
	return c.JSON(http.StatusOK, googleConfigResponse{
		Success:     true,
		Configured:  cfg.OK(),
		ClientID:    cfg.ClientID,
		RedirectURI: cfg.RedirectURI,
		Errors:      cfg.Errors,
		Warnings:    cfg.Warnings,
	})
}
