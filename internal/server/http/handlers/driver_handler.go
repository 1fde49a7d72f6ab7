package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fueldrop/fueldrop/internal/server/http/dto"
)

const defaultSearchRadiusKm = 10

// DriverHandler manages driver presence, matching, and profile endpoints.
type DriverHandler struct {
	facade DriverFacade
}

// NewDriverHandler constructs DriverHandler.
func NewDriverHandler(facade DriverFacade) *DriverHandler {
	return &DriverHandler{facade: facade}
}

// Available handles GET /api/driver/orders/available.
func (h *DriverHandler) Available(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	radiusKm := float64(defaultSearchRadiusKm)
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		radiusKm = parsed
	}

	orders, err := h.facade.AvailableOrders(c.Request.Context(), CurrentUserID(c), lat, lng, radiusKm)
	if err != nil {
		RespondError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Status handles POST /api/driver/status.
func (h *DriverHandler) Status(c *gin.Context) {
	var req dto.DriverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.SetDriverOnline(c.Request.Context(), CurrentUserID(c), CurrentRole(c), req.Online); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Location handles POST /api/driver/location.
func (h *DriverHandler) Location(c *gin.Context) {
	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.UpdateDriverLocation(c.Request.Context(), CurrentUserID(c), CurrentRole(c), req.Latitude, req.Longitude); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Profile handles GET /api/profile.
func (h *DriverHandler) Profile(c *gin.Context) {
	user, err := h.facade.Profile(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileResponse{
		ID:          user.ID,
		Name:        user.Name,
		Role:        string(user.Role),
		Active:      user.Active,
		Approved:    user.Approved,
		Online:      user.Online,
		Rating:      user.RatingAvg(),
		RatingCount: user.RatingCount,
		Latitude:    user.Latitude,
		Longitude:   user.Longitude,
	})
}
