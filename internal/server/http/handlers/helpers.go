package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/server/http/dto"
	"github.com/fueldrop/fueldrop/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentRole extracts the authenticated role from context.
func CurrentRole(c *gin.Context) model.Role {
	val, ok := c.Get(middleware.RoleContextKey)
	if !ok {
		return ""
	}
	role, _ := val.(model.Role)
	return role
}

// PathID parses the :id path parameter.
func PathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RespondError maps a domain error onto the HTTP status taxonomy.
func RespondError(c *gin.Context, err error) {
	var validation *domainErrors.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, domainErrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrConflict), errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainErrors.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.Status(http.StatusInternalServerError)
	}
}

func toAddressPayload(a model.Address) dto.AddressPayload {
	return dto.AddressPayload{
		Line:         a.Line,
		Landmark:     a.Landmark,
		Instructions: a.Instructions,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
	}
}

func toRatingPayload(r *model.Rating) *dto.RatingPayload {
	if r == nil {
		return nil
	}
	return &dto.RatingPayload{Score: r.Score, Comment: r.Comment, RatedAt: r.RatedAt}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		DriverID:         o.DriverID,
		FuelType:         string(o.FuelType),
		Quantity:         float64(o.QuantityMilli) / 1000,
		UnitPrice:        o.UnitPrice.Float64(),
		DeliveryFee:      o.DeliveryFee.Float64(),
		Total:            o.Total.Float64(),
		Address:          toAddressPayload(o.Address),
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentMethod:    string(o.PaymentMethod),
		PaymentIntentRef: o.PaymentIntentRef,
		PaidAt:           o.PaidAt,
		EstimatedArrival: o.EstimatedArrival,
		DeliveredAt:      o.ActualDeliveryTime,
		CustomerRating:   toRatingPayload(o.CustomerRating),
		DriverRating:     toRatingPayload(o.DriverRating),
		CreatedAt:        o.CreatedAt,
	}
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	result := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i]))
	}
	return result
}
