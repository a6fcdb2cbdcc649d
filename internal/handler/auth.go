package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/config"
	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/service"
	"github.com/iliyamo/suite-exchange/internal/utils"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Cfg config.Config
	Svc *service.Service
}

func NewAuthHandler(cfg config.Config, svc *service.Service) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Svc: svc}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userDTO is the public view of an account.  The password hash never leaves
// the server.
type userDTO struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	IsLocked  bool       `json:"is_locked"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserDTO(u model.User) userDTO {
	return userDTO{ID: u.ID, Email: u.Email, Role: u.Role, IsLocked: u.IsLocked, CreatedAt: u.CreatedAt}
}

type authResp struct {
	User   userDTO           `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Register creates a GUEST account and returns an access token for it.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.Register(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusCreated, u)
}

// Login verifies credentials and returns a fresh access token.  The token
// carries the role held at login time.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return h.issue(c, http.StatusOK, u)
}

func (h *AuthHandler) issue(c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, authResp{User: toUserDTO(u), Access: access})
}

// Me returns the caller's account as currently stored, which may show a
// newer role than the token carries.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.Me(ctx, caller(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}
