package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/confessly/backend/internal/audit"
	"github.com/confessly/backend/internal/models"
	"github.com/spf13/viper"
)

// TopUpService is the credit-only sibling of the unlock engine. The payment
// gateway is a deliberate stand-in: the outcome is deterministic by package
// size so both client flows stay testable. Packages at or above the decline
// threshold always fail, after the simulated processing delay, with no ledger
// mutation at all.
type TopUpService struct {
	db               *sql.DB
	ledger           *LedgerService
	validator        *ValidationHelper
	audit            *audit.Logger
	declineThreshold int64
	gatewayDelay     func() time.Duration
}

// TopUpOutcome is returned on a successful top-up.
type TopUpOutcome struct {
	NewBalance int64  `json:"newBalance"`
	CoinsAdded int64  `json:"coinsAdded"`
	PackageID  string `json:"packageId"`
}

func NewTopUpService(db *sql.DB, ledger *LedgerService) *TopUpService {
	viper.SetDefault("topup.decline_threshold", 500)
	viper.SetDefault("topup.gateway_delay_min_ms", 1500)
	viper.SetDefault("topup.gateway_delay_max_ms", 2000)

	minDelay := viper.GetInt("topup.gateway_delay_min_ms")
	maxDelay := viper.GetInt("topup.gateway_delay_max_ms")

	return &TopUpService{
		db:               db,
		ledger:           ledger,
		validator:        NewValidationHelper(),
		audit:            audit.NewLogger(),
		declineThreshold: viper.GetInt64("topup.decline_threshold"),
		gatewayDelay: func() time.Duration {
			spread := maxDelay - minDelay
			if spread <= 0 {
				return time.Duration(minDelay) * time.Millisecond
			}
			return time.Duration(minDelay+rand.Intn(spread)) * time.Millisecond
		},
	}
}

// TopUp resolves a coin package and credits the user's account. Declines are
// a complete no-op: no ledger entry, no balance change, nothing to refund.
func (s *TopUpService) TopUp(userID, packageID string) (*TopUpOutcome, error) {
	pkg := models.CoinPackageByID(packageID)
	if pkg == nil {
		return nil, ErrNotFound
	}

	// Simulated gateway processing latency.
	time.Sleep(s.gatewayDelay())

	if pkg.Coins >= s.declineThreshold {
		log.Printf("[TOPUP] Gateway declined package %s (%d coins) for user %s", pkg.ID, pkg.Coins, userID)
		return nil, ErrGatewayDeclined
	}

	newBalance, err := s.ledger.ApplyEntry(userID, pkg.Coins, models.KindTopUp, nil)
	if err != nil {
		return nil, err
	}

	return &TopUpOutcome{
		NewBalance: newBalance,
		CoinsAdded: pkg.Coins,
		PackageID:  pkg.ID,
	}, nil
}

// TopUpRequest is the top-up payload.
// @Description Top-up request structure
type TopUpRequest struct {
	PackageID string `json:"packageId" validate:"required"`
}

// HandleTopUp processes a coin purchase
// @Summary Buy a coin package
// @Description Credit the caller's balance with a coin package via the mock gateway
// @Tags topup
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TopUpRequest true "Top-up request"
// @Success 200 {object} TopUpOutcome
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse "Gateway declined"
// @Failure 404 {object} ErrorResponse
// @Router /topup [post]
func (s *TopUpService) HandleTopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TopUpRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	outcome, err := s.TopUp(userID, req.PackageID)
	if err != nil {
		s.audit.LogError(userID, "TOP_UP", err)
		switch {
		case errors.Is(err, ErrGatewayDeclined):
			SendErrorResponse(w, "Transaction failed, please try again", http.StatusPaymentRequired, nil)
		case errors.Is(err, ErrNotFound):
			SendErrorResponse(w, "Unknown coin package", http.StatusNotFound, nil)
		default:
			SendErrorResponse(w, "Failed to top up", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// HandleListPackages lists the coin catalog
// @Summary List coin packages
// @Tags topup
// @Produce json
// @Success 200 {array} models.CoinPackage
// @Router /packages [get]
func (s *TopUpService) HandleListPackages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CoinPackages)
}
