package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/api/middleware"
	"github.com/angelmondragon/cashvault-backend/api/responses"
	"github.com/angelmondragon/cashvault-backend/api/validators"
	"github.com/angelmondragon/cashvault-backend/internal/atmloading"
	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/types"
)

type loadingRequest struct {
	ClientID    *uuid.UUID          `json:"clientId,omitempty"`
	ATMID       uuid.UUID           `json:"atmId" validate:"required"`
	Notes       denomination.Vector `json:"notes"`
	TotalAmount *decimal.Decimal    `json:"totalAmount,omitempty" validate:"omitempty,positive"`
	LoadingDate types.Date          `json:"loadingDate"`
	Comment     string              `json:"comment,omitempty" validate:"max=500"`
}

// ATMLoadingCreate runs the loading workflow for a new replenishment.
func ATMLoadingCreate(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loadingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.ClientID == nil || *req.ClientID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"clientId": "is required"}))
			return
		}
		input := atmloading.CreateInput{
			ClientID:    *req.ClientID,
			ATMID:       req.ATMID,
			Notes:       req.Notes,
			TotalAmount: req.TotalAmount,
			LoadingDate: req.LoadingDate.Time,
			Comment:     validators.SanitizeString(req.Comment, 500),
			OperatorID:  middleware.OperatorIDFromContext(r.Context()),
		}
		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ATMLoadingUpdate edits a loading and rebalances the vault by the delta.
func ATMLoadingUpdate(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req loadingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), id, atmloading.UpdateInput{
			ClientID:    req.ClientID,
			ATMID:       req.ATMID,
			Notes:       req.Notes,
			TotalAmount: req.TotalAmount,
			LoadingDate: req.LoadingDate.Time,
			Comment:     validators.SanitizeString(req.Comment, 500),
			OperatorID:  middleware.OperatorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ATMLoadingDelete reverses a loading and restores its notes to the vault.
func ATMLoadingDelete(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Delete(r.Context(), id, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ATMLoadingGet(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loading, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loading)
	}
}

func ATMLoadingList(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ATMLoadingListByClient(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loadings, err := svc.ListByClient(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loadings)
	}
}

func ATMLoadingListByATM(svc atmloading.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atmID, err := validators.ParseUUIDParam(r, "atmId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loadings, err := svc.ListByATM(r.Context(), atmID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, loadings)
	}
}
