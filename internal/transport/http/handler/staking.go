package handler

import (
	"encoding/json"
	"net/http"

	"github.com/stakesol/api/internal/application/staking"
	"github.com/stakesol/api/internal/pkg/validate"
)

// StakingHandler serves the staking plan table and return estimates.
type StakingHandler struct{}

func NewStakingHandler() *StakingHandler { return &StakingHandler{} }

func (h *StakingHandler) Plans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, staking.Plans())
}

func (h *StakingHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req staking.EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	est, err := staking.Calculate(req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}
