package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suite-exchange/internal/model"
	"github.com/iliyamo/suite-exchange/internal/service"
)

// ListingHandler serves the listing lifecycle and discovery.
type ListingHandler struct {
	Svc *service.Service
}

func NewListingHandler(svc *service.Service) *ListingHandler {
	return &ListingHandler{Svc: svc}
}

type saleReq struct {
	Quantity int `json:"quantity"`
}

type moderateReq struct {
	Reason string `json:"reason"`
}

// Create opens a listing for the caller.
func (h *ListingHandler) Create(c echo.Context) error {
	var req service.CreateListingInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.CreateListing(ctx, caller(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// Update edits price and notes.
func (h *ListingHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req service.UpdateListingInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.UpdateListing(ctx, caller(c), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// RecordSale removes sold tickets from a listing.
func (h *ListingHandler) RecordSale(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req saleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.RecordSale(ctx, caller(c), id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Withdraw takes a listing off the market.
func (h *ListingHandler) Withdraw(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.WithdrawListing(ctx, caller(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Moderate hides a listing; admins only.
func (h *ListingHandler) Moderate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.ModerateListing(ctx, caller(c), id, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Get returns one listing and counts the view.
func (h *ListingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Svc.GetListing(ctx, caller(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// RecordView counts a view without returning the listing.
func (h *ListingHandler) RecordView(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.RecordView(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List serves discovery: ?suite_id=&seller_id=&status=&limit=&offset=.
func (h *ListingHandler) List(c echo.Context) error {
	var q service.ListingQuery
	var ok1, ok2, ok3, ok4 bool
	q.SuiteID, ok1 = queryUint(c, "suite_id")
	q.SellerID, ok2 = queryUint(c, "seller_id")
	q.Limit, ok3 = queryInt(c, "limit", 50)
	q.Offset, ok4 = queryInt(c, "offset", 0)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return badRequest(c, "invalid query parameter")
	}
	q.Status = model.ListingStatus(strings.ToUpper(c.QueryParam("status")))

	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Svc.ListListings(ctx, caller(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": ls})
}
