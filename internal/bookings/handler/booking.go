package handler

import (
	"net/http"

	"roomly/internal/bookings/service"
	"roomly/pkg/auth"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/middleware"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authenticator *middleware.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    authenticator,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	reservation, err := h.service.Create(r.Context(), principal.UserID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if reservation.IsConflict() {
		h.writeConflict(w, "Create", reservation.Conflict)
		return
	}

	if err := httputil.WriteCreated(w, reservation.Booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	details, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, details); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	bookings, err := h.service.GetAll(r.Context())
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WriteList(w, bookings, len(bookings)); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	filter := model.BookingFilter{
		RoomID:      query.Get("room_id"),
		BookingDate: query.Get("booking_date"),
		UserID:      query.Get("user_id"),
	}

	bookings, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteList(w, bookings, len(bookings)); err != nil {
		h.log.Error("failed to write list response", "handler", "Search", "operation", "WriteList", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingUpdate
	if err := httputil.DecodeBody(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	reservation, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	if reservation.IsConflict() {
		h.writeConflict(w, "Update", reservation.Conflict)
		return
	}

	if err := httputil.WriteSuccess(w, reservation.Booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	removed, err := h.service.Delete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, removed); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth.Authenticated(h.Create))
	router.GET("/api/v1/bookings", h.auth.Authenticated(h.GetAll))
	router.GET("/api/v1/bookings/search", h.auth.Authenticated(h.Search))
	router.GET("/api/v1/bookings/id/:id", h.auth.Authenticated(h.GetByID))
	router.PATCH("/api/v1/bookings/id/:id", h.auth.Authenticated(h.Update))
	router.DELETE("/api/v1/bookings/id/:id", h.auth.Authenticated(h.Delete))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeConflict(w http.ResponseWriter, handler string, conflict *model.Conflict) {
	if err := httputil.WriteConflict(w, conflict); err != nil {
		h.log.Error("failed to write conflict response", "handler", handler, "operation", "WriteConflict", "error", err)
	}
}
