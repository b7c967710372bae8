package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelazquez/courierdesk-backend/api/controllers"
	"github.com/avelazquez/courierdesk-backend/api/middleware"
	"github.com/avelazquez/courierdesk-backend/internal/activity"
	"github.com/avelazquez/courierdesk-backend/internal/assignments"
	"github.com/avelazquez/courierdesk-backend/internal/drivers"
	"github.com/avelazquez/courierdesk-backend/internal/notifications"
	"github.com/avelazquez/courierdesk-backend/internal/orders"
	"github.com/avelazquez/courierdesk-backend/internal/schedules"
	"github.com/avelazquez/courierdesk-backend/pkg/config"
	"github.com/avelazquez/courierdesk-backend/pkg/logger"
)

// Services bundles everything the router needs.
type Services struct {
	Drivers       drivers.Service
	Orders        orders.Service
	Assignments   assignments.Service
	Schedules     schedules.Service
	Activity      activity.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/drivers", func(r chi.Router) {
			r.Post("/", controllers.CreateDriver(svcs.Drivers, logg))
			r.Get("/", controllers.ListDrivers(svcs.Drivers, logg))
			r.Get("/{driverId}", controllers.GetDriver(svcs.Drivers, logg))
			r.Post("/{driverId}/deactivate", controllers.DeactivateDriver(svcs.Drivers, logg))
			r.Post("/{driverId}/workflow-status", controllers.SetDriverWorkflowStatus(svcs.Drivers, logg))
			r.Post("/{driverId}/unavailabilities", controllers.AddDriverUnavailability(svcs.Drivers, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.IntakeOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
			r.Get("/{orderId}/assignable-drivers", controllers.ListAssignableDrivers(svcs.Assignments, logg))
			r.Post("/{orderId}/assign", controllers.AssignOrder(svcs.Assignments, logg))
			r.Post("/{orderId}/unassign", controllers.UnassignOrder(svcs.Assignments, logg))
			r.Post("/{orderId}/status", controllers.TransitionOrder(svcs.Orders, logg))
			r.Post("/{orderId}/schedule", controllers.ScheduleOrder(svcs.Schedules, logg))
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/{scheduleId}", controllers.GetSchedule(svcs.Schedules, logg))
			r.Post("/{scheduleId}/reschedule", controllers.RescheduleAssignment(svcs.Schedules, logg))
			r.Post("/{scheduleId}/cancel", controllers.CancelSchedule(svcs.Schedules, logg))
		})

		r.Get("/activity", controllers.ListActivity(svcs.Activity, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
