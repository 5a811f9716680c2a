package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/solana-scout/internal/circuitbreaker"
	apperrors "github.com/solana-scout/internal/errors"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/types"
)

const serviceName = "solana-scout"

// requestContext applies the per-request deadline
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.config.RequestTimeout)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "healthy",
		"service": serviceName,
		"version": types.ReportVersion,
	}

	if s.breaker != nil {
		stats := s.breaker.GetStats()
		resp["rpcBreaker"] = stats
		if stats.State == circuitbreaker.StateOpen {
			resp["status"] = "degraded"
		}
	}

	if s.budget != nil {
		usage, err := s.budget.Usage(r.Context())
		if err != nil {
			logging.FromContext(r.Context()).WithError(err).Warn("Failed to read RPC budget usage")
			resp["rpcBudget"] = map[string]string{"error": "unavailable"}
		} else {
			resp["rpcBudget"] = usage
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleWalletReport handles GET /api/wallets/{address}
func (s *Server) handleWalletReport(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	ctx, cancel := s.requestContext(r)
	defer cancel()

	report, err := s.reports.BuildReport(ctx, address)
	if err != nil {
		logServiceError(logging.FromContext(r.Context()).WithField("address", address), err, "Wallet report failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleCompare handles GET /api/compare/{a}/{b}
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a, b := vars["a"], vars["b"]

	ctx, cancel := s.requestContext(r)
	defer cancel()

	report, err := s.comparisons.Compare(ctx, a, b)
	if err != nil {
		logServiceError(logging.FromContext(r.Context()).WithFields(map[string]interface{}{
			"wallet1": a,
			"wallet2": b,
		}), err, "Wallet comparison failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// logServiceError picks the level from the error's status class.
// RPC failures and budget refusals stay at warn.
func logServiceError(log *logging.Logger, err error, message string) {
	log = log.WithError(err)
	switch {
	case apperrors.IsRPCError(err):
		log.Warn(message)
	case apperrors.IsUserError(err):
		log.Info(message)
	case apperrors.IsSystemError(err):
		log.Error(message)
	default:
		log.Warn(message)
	}
}

// respondServiceError maps a core error onto its status code and error body
func respondServiceError(w http.ResponseWriter, err error) {
	status := apperrors.GetHTTPStatusCode(err)
	catErr := apperrors.Categorize(err)
	if catErr.Category == apperrors.CategorySystem {
		respondError(w, status, catErr.Code, "An internal error occurred", nil)
		return
	}
	svcErr := catErr.ToServiceError()
	respondError(w, status, svcErr.Code, svcErr.Message, svcErr.Details)
}
