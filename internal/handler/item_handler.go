package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/service"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
	"github.com/reuniteapp/reunite-api/pkg/response"
)

type itemService interface {
	Create(ctx context.Context, req service.CreateItemRequest, ownerID string) (*models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, *models.Pagination, error)
	Resolve(ctx context.Context, id, actorID string, role models.UserRole) (*models.Item, error)
}

type itemMatcher interface {
	ProcessItem(ctx context.Context, itemID string) (*service.MatchPassResult, error)
	Preview(ctx context.Context, itemID string) ([]service.MatchResult, error)
	ListMatches(ctx context.Context, itemID string) ([]models.MatchRecord, error)
}

type posterRenderer interface {
	RenderPoster(item *models.Item, contact string) ([]byte, error)
}

// ItemHandler exposes lost and found report endpoints.
type ItemHandler struct {
	items   itemService
	matcher itemMatcher
	poster  posterRenderer
}

// NewItemHandler constructs ItemHandler.
func NewItemHandler(items itemService, matcher itemMatcher, poster posterRenderer) *ItemHandler {
	return &ItemHandler{items: items, matcher: matcher, poster: poster}
}

// Create godoc
// @Summary Report a lost or found item
// @Tags Items
// @Accept json
// @Produce json
// @Param payload body service.CreateItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.items.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List godoc
// @Summary List reports
// @Tags Items
// @Produce json
// @Param type query string false "Filter by LOST or FOUND"
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param search query string false "Search in title and description"
// @Param mine query bool false "Only the caller's reports"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	var filter models.ItemFilter
	if raw := c.Query("type"); raw != "" {
		t := models.ItemType(strings.ToUpper(raw))
		if t != models.ItemTypeLost && t != models.ItemTypeFound {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "type must be LOST or FOUND"))
			return
		}
		filter.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := models.ItemStatus(strings.ToUpper(raw))
		switch s {
		case models.ItemStatusOpen, models.ItemStatusResolved, models.ItemStatusExpired:
			filter.Status = &s
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
	}
	filter.Category = strings.TrimSpace(c.Query("category"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if c.Query("mine") == "true" {
		claims := claimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		filter.OwnerID = claims.UserID
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get report detail
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Resolve godoc
// @Summary Close a report as resolved
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /items/{id}/resolve [post]
func (h *ItemHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.items.Resolve(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Match godoc
// @Summary Run a matching pass for a report
// @Description Ranks the opposite open pool and records new matches
// @Tags Matches
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /items/{id}/match [post]
func (h *ItemHandler) Match(c *gin.Context) {
	result, err := h.matcher.ProcessItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// PreviewMatches godoc
// @Summary Preview match candidates without recording them
// @Tags Matches
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /items/{id}/matches/preview [get]
func (h *ItemHandler) PreviewMatches(c *gin.Context) {
	matches, err := h.matcher.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil)
}

// ListMatches godoc
// @Summary List recorded matches for a report
// @Tags Matches
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /items/{id}/matches [get]
func (h *ItemHandler) ListMatches(c *gin.Context) {
	records, err := h.matcher.ListMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Poster godoc
// @Summary Render a printable flyer for a report
// @Tags Items
// @Produce application/pdf
// @Param id path string true "Item ID"
// @Success 200 {file} binary
// @Router /items/{id}/poster [get]
func (h *ItemHandler) Poster(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.poster.RenderPoster(item, claims.Email)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render poster"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s_poster.pdf\"", item.ID))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}
