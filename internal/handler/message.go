package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/repository"
	"github.com/iliyamo/suite-exchange/internal/service"
)

// MessageHandler serves listing message threads.
type MessageHandler struct {
	Svc *service.Service
}

func NewMessageHandler(svc *service.Service) *MessageHandler {
	return &MessageHandler{Svc: svc}
}

type sendReq struct {
	Body    string `json:"body"`
	ReplyTo uint64 `json:"reply_to,omitempty"`
}

// Send posts a message about the listing in the path.
func (h *MessageHandler) Send(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req sendReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Svc.SendMessage(ctx, caller(c), id, req.Body, req.ReplyTo)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// MarkRead marks one message as read.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid message id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Svc.MarkRead(ctx, caller(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// MarkAllRead marks every unread message addressed to the caller.
func (h *MessageHandler) MarkAllRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Svc.MarkAllRead(ctx, caller(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

// Threads lists the caller's conversations; ?filter=inbox|sent|all.
func (h *MessageHandler) Threads(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dir := repository.MessageDirection(strings.ToLower(c.QueryParam("filter")))
	list, err := h.Svc.ListThreads(ctx, caller(c), dir)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
