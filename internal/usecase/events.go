package usecase

import (
	"time"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/dispatch"
)

func newOrderEvent(o *model.Order) dispatch.Event {
	return dispatch.Event{
		Kind: dispatch.EventNewOrder,
		Payload: map[string]any{
			"order_id":     o.ID,
			"order_number": o.Number,
			"customer_id":  o.CustomerID,
			"fuel_type":    string(o.FuelType),
			"quantity":     float64(o.QuantityMilli) / 1000,
			"total":        o.Total.Float64(),
			"address": map[string]any{
				"line":      o.Address.Line,
				"landmark":  o.Address.Landmark,
				"latitude":  o.Address.Latitude,
				"longitude": o.Address.Longitude,
			},
		},
	}
}

func orderUpdateEvent(o *model.Order, reason string) dispatch.Event {
	payload := map[string]any{
		"order_id": o.ID,
		"status":   string(o.Status),
	}
	if o.EstimatedArrival != nil {
		payload["estimated_arrival"] = *o.EstimatedArrival
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return dispatch.Event{Kind: dispatch.EventOrderUpdate, Payload: payload}
}

func paymentEvent(kind dispatch.EventKind, o *model.Order, detail string) dispatch.Event {
	payload := map[string]any{
		"order_id":     o.ID,
		"order_number": o.Number,
		"amount":       o.Total.Float64(),
	}
	if detail != "" {
		payload["detail"] = detail
	}
	return dispatch.Event{Kind: kind, Payload: payload}
}

func driverLocationEvent(driverID int64, orderID *int64, lat, lng float64, at time.Time) dispatch.Event {
	payload := map[string]any{
		"driver_id": driverID,
		"latitude":  lat,
		"longitude": lng,
		"timestamp": at,
	}
	if orderID != nil {
		payload["order_id"] = *orderID
	}
	return dispatch.Event{Kind: dispatch.EventDriverLocationUpdate, Payload: payload}
}

func flagEvent(kind dispatch.EventKind, userID int64, field string, value bool, reason string) dispatch.Event {
	payload := map[string]any{
		"user_id": userID,
		field:     value,
	}
	if reason != "" {
		payload["reason"] = reason
	}
	return dispatch.Event{Kind: kind, Payload: payload}
}
