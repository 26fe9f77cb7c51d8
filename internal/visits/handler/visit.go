package handler

import (
	"encoding/json"
	"net/http"

	"medbook/internal/visits/service"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VisitHandler struct {
	service service.VisitService
	log     *logger.Logger
}

func NewVisitHandler(service service.VisitService, log *logger.Logger) *VisitHandler {
	return &VisitHandler{
		service: service,
		log:     log,
	}
}

type createFunc func(r *http.Request, actor string, visit *model.Visit) error

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.create(w, r, "Create", func(r *http.Request, actor string, visit *model.Visit) error {
		return h.service.CreateVisit(r.Context(), actor, visit)
	})
}

func (h *VisitHandler) CreateAuction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.create(w, r, "CreateAuction", func(r *http.Request, actor string, visit *model.Visit) error {
		return h.service.CreateAuctionVisit(r.Context(), actor, visit)
	})
}

func (h *VisitHandler) CreateRecurring(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.create(w, r, "CreateRecurring", func(r *http.Request, actor string, visit *model.Visit) error {
		return h.service.CreateRecurringVisit(r.Context(), actor, visit)
	})
}

func (h *VisitHandler) create(w http.ResponseWriter, r *http.Request, handler string, fn createFunc) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, handler, err)
		return
	}

	var visit model.Visit
	if err := json.NewDecoder(r.Body).Decode(&visit); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := fn(r, actor, &visit); err != nil {
		h.writeError(w, handler, err)
		return
	}

	if err := httputil.WriteCreated(w, visit); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func (h *VisitHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	details, err := h.service.GetDetails(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}
	h.writeSuccess(w, "GetByID", details)
}

func (h *VisitHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.Actor(r); err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	if err := h.service.Approve(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Approve", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *VisitHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := h.service.Book(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Book", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *VisitHandler) BookPrecheck(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "BookPrecheck", err)
		return
	}

	if err := h.service.BookPrecheck(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "BookPrecheck", err)
		return
	}
	h.writeSuccess(w, "BookPrecheck", map[string]any{"bookable": true})
}

func (h *VisitHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := h.service.CancelBooking(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *VisitHandler) Pending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeList(w, "Pending")(h.service.PendingVisits(r.Context()))
}

func (h *VisitHandler) PendingAuction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeList(w, "PendingAuction")(h.service.PendingAuctionVisits(r.Context()))
}

func (h *VisitHandler) AvailableAuction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeList(w, "AvailableAuction")(h.service.AvailableAuctionVisits(r.Context()))
}

func (h *VisitHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}
	h.writeList(w, "Mine")(h.service.DoctorVisits(r.Context(), actor))
}

func (h *VisitHandler) MineAuction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "MineAuction", err)
		return
	}
	h.writeList(w, "MineAuction")(h.service.DoctorAuctionVisits(r.Context(), actor))
}

func (h *VisitHandler) MineRecurring(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "MineRecurring", err)
		return
	}
	h.writeList(w, "MineRecurring")(h.service.DoctorRecurringVisits(r.Context(), actor))
}

func (h *VisitHandler) MineRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "MineRange", err)
		return
	}
	start, end, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "MineRange", err)
		return
	}
	h.writeList(w, "MineRange")(h.service.DoctorVisitsInRange(r.Context(), actor, start, end))
}

func (h *VisitHandler) Booked(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Booked", err)
		return
	}
	h.writeList(w, "Booked")(h.service.PatientBookedVisits(r.Context(), actor))
}

func (h *VisitHandler) History(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "History", err)
		return
	}
	start, end, err := httputil.ExtractTimeRange(r)
	if err != nil {
		h.writeError(w, "History", err)
		return
	}
	h.writeList(w, "History")(h.service.PatientHistory(r.Context(), actor, start, end))
}

func (h *VisitHandler) Available(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	h.writeList(w, "Available")(h.service.AvailableVisits(r.Context(), query.Get("department"), query.Get("doctor")))
}

func (h *VisitHandler) Recommendations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Recommendations", err)
		return
	}
	h.writeList(w, "Recommendations")(h.service.Recommendations(r.Context(), actor))
}

func (h *VisitHandler) Departments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	departments, err := h.service.Departments(r.Context())
	if err != nil {
		h.writeError(w, "Departments", err)
		return
	}
	h.writeSuccess(w, "Departments", departments)
}

func (h *VisitHandler) Doctors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doctors, err := h.service.Doctors(r.Context())
	if err != nil {
		h.writeError(w, "Doctors", err)
		return
	}
	h.writeSuccess(w, "Doctors", doctors)
}

func (h *VisitHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/visits", h.Create)
	router.POST("/api/v1/visits/auction", h.CreateAuction)
	router.POST("/api/v1/visits/recurring", h.CreateRecurring)

	router.GET("/api/v1/visits/id/:id", h.GetByID)
	router.POST("/api/v1/visits/id/:id/approve", h.Approve)
	router.DELETE("/api/v1/visits/id/:id", h.Delete)

	router.POST("/api/v1/visits/id/:id/book", h.Book)
	router.POST("/api/v1/visits/id/:id/precheck", h.BookPrecheck)
	router.POST("/api/v1/visits/id/:id/cancel", h.Cancel)

	router.GET("/api/v1/visits/pending", h.Pending)
	router.GET("/api/v1/visits/pending/auction", h.PendingAuction)
	router.GET("/api/v1/visits/auction/available", h.AvailableAuction)

	router.GET("/api/v1/visits/mine", h.Mine)
	router.GET("/api/v1/visits/mine/auction", h.MineAuction)
	router.GET("/api/v1/visits/mine/recurring", h.MineRecurring)
	router.GET("/api/v1/visits/mine/range", h.MineRange)

	router.GET("/api/v1/visits/booked", h.Booked)
	router.GET("/api/v1/visits/history", h.History)
	router.GET("/api/v1/visits/available", h.Available)
	router.GET("/api/v1/visits/recommendations", h.Recommendations)
	router.GET("/api/v1/visits/departments", h.Departments)
	router.GET("/api/v1/visits/doctors", h.Doctors)
}

func (h *VisitHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *VisitHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *VisitHandler) writeList(w http.ResponseWriter, handler string) func([]*model.Visit, error) {
	return func(visits []*model.Visit, err error) {
		if err != nil {
			h.writeError(w, handler, err)
			return
		}
		if visits == nil {
			visits = []*model.Visit{}
		}
		h.writeSuccess(w, handler, visits)
	}
}
