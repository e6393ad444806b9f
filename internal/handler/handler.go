// Package handler exposes the tracker service as a JSON HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/promo-tracker/internal/catalog"
	"github.com/xenking/promo-tracker/internal/domain/promotion"
	"github.com/xenking/promo-tracker/internal/domain/purchase"
	"github.com/xenking/promo-tracker/internal/promoview"
	"github.com/xenking/promo-tracker/internal/stacking"
	"github.com/xenking/promo-tracker/internal/tracker"
)

// Service is the subset of tracker.Service used by the API.
type Service interface {
	Promotions(ctx context.Context, filter tracker.Filter) ([]promoview.Model, error)
	Promotion(ctx context.Context, id string) (promoview.Model, error)
	ListPurchases(ctx context.Context, promoID string) ([]purchase.Purchase, error)
	Calculate(ctx context.Context, amount decimal.Decimal, ids []string) (promotion.DiscountResult, error)
	Select(ctx context.Context, current []string, clicked string) (tracker.Selection, error)
	RecordPurchase(ctx context.Context, req tracker.RecordRequest) (*purchase.Purchase, error)
	EditPurchase(ctx context.Context, id string, req tracker.EditRequest) (*purchase.Purchase, error)
	DeletePurchase(ctx context.Context, id string) error
}

var _ Service = (*tracker.Service)(nil)

// Handler serves the promotion API.
type Handler struct {
	svc Service
}

// New creates a Handler backed by svc.
func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/promotions", h.listPromotions)
	mux.HandleFunc("GET /api/promotions/{id}", h.getPromotion)
	mux.HandleFunc("GET /api/promotions/{id}/purchases", h.listPurchases)
	mux.HandleFunc("POST /api/discounts", h.calculate)
	mux.HandleFunc("POST /api/selection", h.selection)
	mux.HandleFunc("POST /api/purchases", h.recordPurchase)
	mux.HandleFunc("PUT /api/purchases/{id}", h.editPurchase)
	mux.HandleFunc("DELETE /api/purchases/{id}", h.deletePurchase)
}

func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	filter, err := tracker.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	models, err := h.svc.Promotions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, m := range models {
			encodeModel(e, m)
		}
		e.ArrEnd()
	})
}

func (h *Handler) getPromotion(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Promotion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeModel(e, m) })
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListPurchases(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePurchases(e, ps) })
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeDiscountRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Calculate(r.Context(), req.Amount, req.PromoIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeDiscount(e, res) })
}

func (h *Handler) selection(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSelectionRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sel, err := h.svc.Select(r.Context(), req.Selected, req.Clicked)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("selected")
		encodeStrings(e, sel.IDs)
		e.FieldStart("replaced")
		e.Bool(sel.Replaced)
		e.ObjEnd()
	})
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	req, err := decodePurchaseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.RecordPurchase(r.Context(), tracker.RecordRequest{
		Amount:        req.Amount,
		Date:          req.Date,
		StoreName:     req.StoreName,
		PaymentMethod: req.PaymentMethod,
		PromoIDs:      req.PromoIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodePurchase(e, *p) })
}

func (h *Handler) editPurchase(w http.ResponseWriter, r *http.Request) {
	req, err := decodePurchaseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.EditPurchase(r.Context(), r.PathValue("id"), tracker.EditRequest{
		Amount:    req.Amount,
		Date:      req.Date,
		StoreName: req.StoreName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePurchase(e, *p) })
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePurchase(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, tracker.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, purchase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stacking.ErrInvalidCombination),
		errors.Is(err, purchase.ErrInvalidAmount),
		errors.Is(err, tracker.ErrNoPromotions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	WriteErrorBody(w, status, msg)
}

// WriteErrorBody writes a {"code","message"} JSON error response.
func WriteErrorBody(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}
