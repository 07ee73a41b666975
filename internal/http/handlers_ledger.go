package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fiado/internal/core"
	"fiado/internal/storage"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	views, err := s.ledger.ListCustomers(r.Context(), sess)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list customers", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list customers")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type createCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var req createCustomerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.ledger.CreateCustomer(r.Context(), sess, req.Name, req.Phone, req.Address)
	if err != nil {
		if errors.Is(err, core.ErrEmptyName) {
			writeError(w, http.StatusUnprocessableEntity, "name is required")
			return
		}
		s.logger.ErrorContext(r.Context(), "create customer", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create customer")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	view, err := s.ledger.GetCustomer(r.Context(), sess, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "get customer", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load customer")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type addTransactionRequest struct {
	Amount      core.Money `json:"amount"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var req addTransactionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txType := core.TxType(strings.ToUpper(strings.TrimSpace(req.Type)))
	t, err := s.ledger.AddTransaction(r.Context(), sess, r.PathValue("id"), req.Amount, txType, req.Description)
	switch {
	case errors.Is(err, core.ErrInvalidTxType):
		writeError(w, http.StatusUnprocessableEntity, "type must be CREDIT or PAYMENT")
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "amount must be positive")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "customer not found")
	case err != nil:
		s.logger.ErrorContext(r.Context(), "add transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "could not add transaction")
	default:
		writeJSON(w, http.StatusCreated, t)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.cachedSummary(r.Context(), r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "summary", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	logs, err := s.ledger.Logs(r.Context(), sess, limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list logs", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list logs")
		return
	}
	if logs == nil {
		logs = []core.UserLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	settings, err := s.ledger.Settings(r.Context(), sess)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}

	var settings core.NotificationSettings
	if err := readJSON(w, r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ledger.UpdateSettings(r.Context(), sess, settings); err != nil {
		s.logger.ErrorContext(r.Context(), "update settings", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAgingReport(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	data, err := s.ledger.AgingReportXLSX(r.Context(), sess)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "aging report", "error", err)
		writeError(w, http.StatusInternalServerError, "could not build report")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="cartera.xlsx"`)
	_, _ = w.Write(data)
}
