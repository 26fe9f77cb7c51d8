package handler

import (
	"encoding/json"
	"net/http"

	"medbook/internal/users/service"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	role := ps.ByName("role")

	switch role {
	case config.RolePatient:
		var patient model.Patient
		if !h.decode(w, r, "Register", &patient) {
			return
		}
		if err := h.service.RegisterPatient(r.Context(), &patient); err != nil {
			h.writeError(w, "Register", err)
			return
		}
		patient.Password = ""
		h.writeCreated(w, "Register", patient)
	case config.RoleDoctor:
		var doctor model.Doctor
		if !h.decode(w, r, "Register", &doctor) {
			return
		}
		if err := h.service.RegisterDoctor(r.Context(), &doctor); err != nil {
			h.writeError(w, "Register", err)
			return
		}
		doctor.Password = ""
		h.writeCreated(w, "Register", doctor)
	case config.RoleAdmin:
		var admin model.Admin
		if !h.decode(w, r, "Register", &admin) {
			return
		}
		if err := h.service.RegisterAdmin(r.Context(), &admin); err != nil {
			h.writeError(w, "Register", err)
			return
		}
		admin.Password = ""
		h.writeCreated(w, "Register", admin)
	default:
		h.writeError(w, "Register", apperrors.InvalidInput("Unknown role: "+role))
	}
}

func (h *UserHandler) CheckUsername(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username := r.URL.Query().Get("username")

	available, err := h.service.UsernameAvailable(r.Context(), username)
	if err != nil {
		h.writeError(w, "CheckUsername", err)
		return
	}

	h.writeSuccess(w, "CheckUsername", map[string]any{
		"username":  username,
		"available": available,
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	account, err := h.service.CurrentUser(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	h.writeSuccess(w, "Me", account)
}

func (h *UserHandler) UpdateSelf(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "UpdateSelf", err)
		return
	}

	switch ps.ByName("role") {
	case config.RolePatient:
		var patch model.PatientPatch
		if !h.decode(w, r, "UpdateSelf", &patch) {
			return
		}
		if err := h.service.UpdateOwnPatientProfile(r.Context(), actor, &patch); err != nil {
			h.writeError(w, "UpdateSelf", err)
			return
		}
	case config.RoleDoctor:
		var patch model.DoctorPatch
		if !h.decode(w, r, "UpdateSelf", &patch) {
			return
		}
		if err := h.service.UpdateOwnDoctorProfile(r.Context(), actor, &patch); err != nil {
			h.writeError(w, "UpdateSelf", err)
			return
		}
	default:
		h.writeError(w, "UpdateSelf", apperrors.InvalidInput("Unknown role: "+ps.ByName("role")))
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.Actor(r); err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	if err := h.service.Approve(r.Context(), ps.ByName("role"), ps.ByName("id")); err != nil {
		h.writeError(w, "Approve", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	role := ps.ByName("role")
	id := ps.ByName("id")

	switch role {
	case config.RolePatient:
		var patch model.PatientPatch
		if !h.decode(w, r, "Update", &patch) {
			return
		}
		if err := h.service.UpdatePatient(r.Context(), actor, id, &patch); err != nil {
			h.writeError(w, "Update", err)
			return
		}
	case config.RoleDoctor:
		var patch model.DoctorPatch
		if !h.decode(w, r, "Update", &patch) {
			return
		}
		if err := h.service.UpdateDoctor(r.Context(), actor, id, &patch); err != nil {
			h.writeError(w, "Update", err)
			return
		}
	case config.RoleAdmin:
		var patch model.AdminPatch
		if !h.decode(w, r, "Update", &patch) {
			return
		}
		if err := h.service.UpdateAdmin(r.Context(), actor, id, &patch); err != nil {
			h.writeError(w, "Update", err)
			return
		}
	default:
		h.writeError(w, "Update", apperrors.InvalidInput("Unknown role: "+role))
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, ps.ByName("role"), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = config.StatusApproved
	}
	if status != config.StatusPending && status != config.StatusApproved {
		h.writeError(w, "List", apperrors.InvalidInput("status must be PENDING or APPROVED"))
		return
	}

	role := ps.ByName("role")
	switch role {
	case config.RolePatient:
		patients, err := h.service.ListPatients(r.Context(), status)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}
		h.writeSuccess(w, "List", patients)
	case config.RoleDoctor:
		doctors, err := h.service.ListDoctors(r.Context(), status)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}
		h.writeSuccess(w, "List", doctors)
	case config.RoleAdmin:
		admins, err := h.service.ListAdmins(r.Context(), status)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}
		h.writeSuccess(w, "List", admins)
	default:
		h.writeError(w, "List", apperrors.InvalidInput("Unknown role: "+role))
	}
}

func (h *UserHandler) UpdateCreditScore(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "UpdateCreditScore", err)
		return
	}

	var body struct {
		Score int `json:"score"`
	}
	if !h.decode(w, r, "UpdateCreditScore", &body) {
		return
	}

	if err := h.service.UpdateCreditScore(r.Context(), actor, ps.ByName("username"), body.Score); err != nil {
		h.writeError(w, "UpdateCreditScore", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) MyPatients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "MyPatients", err)
		return
	}

	patients, err := h.service.PatientsBookedWithDoctor(r.Context(), actor)
	if err != nil {
		h.writeError(w, "MyPatients", err)
		return
	}

	h.writeSuccess(w, "MyPatients", patients)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !h.decode(w, r, "ChangePassword", &body) {
		return
	}

	if err := h.service.ChangeAdminPassword(r.Context(), actor, body.OldPassword, body.NewPassword); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users/register/:role", h.Register)
	router.GET("/api/v1/users/check-username", h.CheckUsername)
	router.GET("/api/v1/users/me", h.Me)
	router.PATCH("/api/v1/users/me/:role", h.UpdateSelf)
	router.POST("/api/v1/users/approve/:role/:id", h.Approve)
	router.PATCH("/api/v1/users/update/:role/:id", h.Update)
	router.DELETE("/api/v1/users/delete/:role/:id", h.Delete)
	router.GET("/api/v1/users/list/:role", h.List)
	router.PUT("/api/v1/users/credit-score/:username", h.UpdateCreditScore)
	router.GET("/api/v1/users/my-patients", h.MyPatients)
	router.POST("/api/v1/users/admin/password", h.ChangePassword)
}

func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, handler string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) writeCreated(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteCreated(w, data); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}
