package controllers

import (
	"net/http"
	"strings"

	"github.com/avelazquez/courierdesk-backend/api/responses"
	"github.com/avelazquez/courierdesk-backend/api/validators"
	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
)

// ListActivity returns the audit feed, newest first, optionally filtered to
// one order or driver.
func ListActivity(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := activity.ListParams{}

		orderID, err := validators.ParseQueryUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.OrderID = orderID

		driverID, err := validators.ParseQueryUUID(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.DriverID = driverID

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
