package handler

import (
	"encoding/json"
	"net/http"

	"medbook/internal/bids/service"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BidHandler struct {
	service service.BidService
	log     *logger.Logger
}

func NewBidHandler(service service.BidService, log *logger.Logger) *BidHandler {
	return &BidHandler{
		service: service,
		log:     log,
	}
}

func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Place", err)
		return
	}

	var body struct {
		VisitID string  `json:"visit_id"`
		Amount  float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Place", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	bid, err := h.service.PlaceBid(r.Context(), actor, body.VisitID, body.Amount)
	if err != nil {
		h.writeError(w, "Place", err)
		return
	}

	if err := httputil.WriteCreated(w, bid); err != nil {
		h.log.Error("failed to write created response", "handler", "Place", "operation", "WriteCreated", "error", err)
	}
}

func (h *BidHandler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.Actor(r)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}

	bids, err := h.service.PatientBids(r.Context(), actor)
	if err != nil {
		h.writeError(w, "Mine", err)
		return
	}
	if bids == nil {
		bids = []*model.Bid{}
	}
	h.writeSuccess(w, "Mine", bids)
}

func (h *BidHandler) ByVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bids, err := h.service.VisitBids(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ByVisit", err)
		return
	}
	if bids == nil {
		bids = []*model.Bid{}
	}
	h.writeSuccess(w, "ByVisit", bids)
}

func (h *BidHandler) Top(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	top, err := h.service.TopBids(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Top", err)
		return
	}
	h.writeSuccess(w, "Top", top)
}

func (h *BidHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bids", h.Place)
	router.GET("/api/v1/bids/mine", h.Mine)
	router.GET("/api/v1/bids/visit/:id", h.ByVisit)
	router.GET("/api/v1/bids/visit/:id/top", h.Top)
}

func (h *BidHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BidHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}
