package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/service"
)

// DiscussionHandler serves the owners' board.
type DiscussionHandler struct {
	Svc *service.Service
}

func NewDiscussionHandler(svc *service.Service) *DiscussionHandler {
	return &DiscussionHandler{Svc: svc}
}

type discussionReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type replyReq struct {
	Content string `json:"content"`
}

type lockReq struct {
	Locked *bool `json:"locked"`
}

// Create opens a discussion.
func (h *DiscussionHandler) Create(c echo.Context) error {
	var req discussionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Svc.CreateDiscussion(ctx, caller(c), req.Title, req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// Reply posts to the discussion in the path.
func (h *DiscussionHandler) Reply(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discussion id")
	}
	var req replyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r, err := h.Svc.PostReply(ctx, caller(c), id, req.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// DeleteReply soft-deletes a reply.
func (h *DiscussionHandler) DeleteReply(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reply id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.DeleteReply(ctx, caller(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Lock sets the locked flag from {"locked": bool}.
func (h *DiscussionHandler) Lock(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discussion id")
	}
	var req lockReq
	if err := c.Bind(&req); err != nil || req.Locked == nil {
		return badRequest(c, "locked is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Svc.LockDiscussion(ctx, caller(c), id, *req.Locked)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// List returns discussions by latest activity; ?limit=&offset=.
func (h *DiscussionHandler) List(c echo.Context) error {
	limit, ok1 := queryInt(c, "limit", 50)
	offset, ok2 := queryInt(c, "offset", 0)
	if !ok1 || !ok2 {
		return badRequest(c, "invalid query parameter")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ds, err := h.Svc.ListDiscussions(ctx, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"discussions": ds})
}

// Get returns a discussion with its replies and counts the view.
func (h *DiscussionHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discussion id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Svc.ViewDiscussion(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
