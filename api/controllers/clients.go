package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/cashvault-backend/api/responses"
	"github.com/angelmondragon/cashvault-backend/api/validators"
	"github.com/angelmondragon/cashvault-backend/internal/certificates"
	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/internal/directory"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createClientRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Code string `json:"code" validate:"required,min=1,max=50,code"`
}

type createATMRequest struct {
	TerminalID string `json:"terminalId" validate:"required,min=1,max=100"`
	Location   string `json:"location,omitempty" validate:"max=255"`
}

func ClientCreate(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createClientRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.CreateClient(r.Context(), directory.CreateClientInput{
			Name: validators.SanitizeString(req.Name, 200),
			Code: validators.NormalizeCode(req.Code, 50),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func ClientList(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := svc.ListClients(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clients)
	}
}

func ClientGet(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := svc.GetClient(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, client)
	}
}

func ATMCreate(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createATMRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		atm, err := svc.CreateATM(r.Context(), directory.CreateATMInput{
			ClientID:   clientID,
			TerminalID: validators.SanitizeString(req.TerminalID, 100),
			Location:   validators.SanitizeString(req.Location, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, atm)
	}
}

func ATMList(svc directory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		atms, err := svc.ListATMs(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, atms)
	}
}

// ClientUpdates pages through a client's movements, newest first.
func ClientUpdates(svc clientledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.History(r.Context(), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ClientBalance projects the client position, optionally as of ?at.
func ClientBalance(svc clientledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		at, err := validators.ParseQueryTime(r, "at")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Balance(r.Context(), clientID, at)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ClientBalanceCertificate renders the certificate for ?date as JSON, or as
// a workbook when format=xlsx.
func ClientBalanceCertificate(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		if format != "" && format != "json" && format != "xlsx" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "format must be json or xlsx").
				WithDetails(map[string]any{"field": "format"}))
			return
		}

		cert, err := svc.Certificate(r.Context(), clientID, day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if format != "xlsx" {
			responses.WriteSuccess(w, cert)
			return
		}

		var buf bytes.Buffer
		if err := certificates.WriteXLSX(&buf, cert); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render certificate"))
			return
		}
		filename := fmt.Sprintf("balance-certificate-%s-%s.xlsx", cert.Client.Code, day.String())
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
