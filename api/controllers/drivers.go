package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avelazquez/courierdesk-backend/api/responses"
	"github.com/avelazquez/courierdesk-backend/api/validators"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/pkg/enums"
	pkgerrors "github.com/avelazquez/courierdesk-backend/pkg/errors"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
)

type createDriverRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2"`
	Phone    *string `json:"phone,omitempty"`
}

type addUnavailabilityRequest struct {
	Type     string    `json:"type" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	Reason   *string   `json:"reason,omitempty"`
}

type setWorkflowStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func CreateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createDriverRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.Create(r.Context(), drivers.CreateDriverInput{
			FullName: body.FullName,
			Phone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, driver)
	}
}

func ListDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var lifecycle *enums.DriverLifecycleStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("lifecycle")); raw != "" {
			parsed, err := enums.ParseDriverLifecycleStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lifecycle filter"))
				return
			}
			lifecycle = &parsed
		}

		result, err := svc.List(r.Context(), lifecycle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := validators.ParsePathUUID(chi.URLParam(r, "driverId"), "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		driver, err := svc.Get(r.Context(), driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, driver)
	}
}

func DeactivateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := validators.ParsePathUUID(chi.URLParam(r, "driverId"), "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), driverID, actorFrom(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func SetDriverWorkflowStatus(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := validators.ParsePathUUID(chi.URLParam(r, "driverId"), "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setWorkflowStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDriverWorkflowStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid workflow status"))
			return
		}

		if err := svc.SetWorkflowStatus(r.Context(), drivers.SetWorkflowStatusInput{
			DriverID: driverID,
			Status:   status,
			Actor:    actorFrom(r),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status.String()})
	}
}

func AddDriverUnavailability(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID, err := validators.ParsePathUUID(chi.URLParam(r, "driverId"), "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addUnavailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseUnavailabilityType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unavailability type"))
			return
		}

		driver, err := svc.AddUnavailability(r.Context(), drivers.AddUnavailabilityInput{
			DriverID: driverID,
			Type:     kind,
			StartsAt: body.StartsAt,
			EndsAt:   body.EndsAt,
			Reason:   body.Reason,
			Actor:    actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, driver)
	}
}
