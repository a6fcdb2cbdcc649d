package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/repository"
	"github.com/iliyamo/suite-exchange/internal/service"
)

// AdminHandler serves account locking, the audit trail and the public
// suite catalogue.
type AdminHandler struct {
	Svc *service.Service
}

func NewAdminHandler(svc *service.Service) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

// LockUser sets the locked flag of the user in the path.
func (h *AdminHandler) LockUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req lockReq
	if err := c.Bind(&req); err != nil || req.Locked == nil {
		return badRequest(c, "locked is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Svc.SetUserLocked(ctx, caller(c), id, *req.Locked)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserDTO(u))
}

// Audit lists audit events newest first;
// ?action=&target_type=&target_id=&limit=.
func (h *AdminHandler) Audit(c echo.Context) error {
	targetID, ok1 := queryUint(c, "target_id")
	limit, ok2 := queryInt(c, "limit", 100)
	if !ok1 || !ok2 {
		return badRequest(c, "invalid query parameter")
	}
	f := repository.AuditFilter{
		Action:     strings.ToUpper(c.QueryParam("action")),
		TargetType: c.QueryParam("target_type"),
		TargetID:   targetID,
		Limit:      limit,
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, err := h.Svc.ListAuditEvents(ctx, caller(c), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// Suites lists the venue's suites.
func (h *AdminHandler) Suites(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	suites, err := h.Svc.ListSuites(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"suites": suites})
}
