package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/service"
)

// ApplicationHandler serves seller verification.
type ApplicationHandler struct {
	Svc *service.Service
}

func NewApplicationHandler(svc *service.Service) *ApplicationHandler {
	return &ApplicationHandler{Svc: svc}
}

type decisionReq struct {
	Decision model.ApplicationStatus `json:"decision"`
	Note     *string                 `json:"note"`
}

// Submit files a seller application for the caller.
func (h *ApplicationHandler) Submit(c echo.Context) error {
	var req service.SubmitApplicationInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	app, err := h.Svc.SubmitApplication(ctx, caller(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, app)
}

// Decide approves or denies a PENDING application.
func (h *ApplicationHandler) Decide(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}
	var req decisionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	decision := model.ApplicationStatus(strings.ToUpper(strings.TrimSpace(string(req.Decision))))
	app, err := h.Svc.DecideApplication(ctx, caller(c), id, decision, req.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// List returns applications for review, optionally filtered by ?status=.
func (h *ApplicationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	status := model.ApplicationStatus(strings.ToUpper(c.QueryParam("status")))
	apps, err := h.Svc.ListApplications(ctx, caller(c), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}

// Mine returns the caller's own applications.
func (h *ApplicationHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	apps, err := h.Svc.MyApplications(ctx, caller(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": apps})
}
