package handler

import (
	"encoding/json"
	"net/http"

	"family_ledger/internal/api/middleware"
	"family_ledger/internal/app/service"
	"family_ledger/internal/common"

	"github.com/go-chi/chi/v5"
)

type DebtHandler struct {
	debtService *service.DebtService
}

func NewDebtHandler(debtService *service.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

func (h *DebtHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listDebts)       // GET /api/debts
	r.Get("/{debtID}", h.getDebt) // GET /api/debts/42

	// Mutations are admin-only; any authenticated caller may read.
	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createDebt)
		adminRouter.Put("/{debtID}", h.updateDebt)
		adminRouter.Delete("/{debtID}", h.deleteDebt)
	})
}

func (h *DebtHandler) listDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.debtService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, debts)
}

func (h *DebtHandler) getDebt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "debtID")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	debt, err := h.debtService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, debt)
}

func (h *DebtHandler) createDebt(w http.ResponseWriter, r *http.Request) {
	var req service.DebtInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	debt, err := h.debtService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, debt)
}

func (h *DebtHandler) updateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "debtID")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req service.DebtInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	debt, err := h.debtService.Update(r.Context(), id, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, debt)
}

func (h *DebtHandler) deleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "debtID")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.debtService.Delete(r.Context(), id); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithAck(w)
}
