package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/asset"
	"github.com/taexart/taexmarket/fee"
	"github.com/taexart/taexmarket/ledger"
	"github.com/taexart/taexmarket/market"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain sentinels onto HTTP status codes. Anything
// unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, asset.ErrRegistryNotFound),
		errors.Is(err, asset.ErrInvalidTokenID):
		return http.StatusNotFound

	case errors.Is(err, asset.ErrNotAuthorized),
		errors.Is(err, asset.ErrNotOwnerOfToken),
		errors.Is(err, asset.ErrNotOwnerNorApproved),
		errors.Is(err, market.ErrNotOwner):
		return http.StatusForbidden

	case errors.Is(err, asset.ErrRegistryExists),
		errors.Is(err, asset.ErrAlreadyListed):
		return http.StatusConflict

	case errors.Is(err, market.ErrInsufficientAmount),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	case errors.Is(err, account.ErrInvalidAddress),
		errors.Is(err, asset.ErrNotListed),
		errors.Is(err, asset.ErrInvalidMintAmount),
		errors.Is(err, asset.ErrMaxSupplyExceeded),
		errors.Is(err, asset.ErrTokenNotApproved),
		errors.Is(err, asset.ErrZeroAddress),
		errors.Is(err, asset.ErrZeroPrice),
		errors.Is(err, fee.ErrInvalidFeePercentage),
		errors.Is(err, fee.ErrInvalidFeeCombination),
		errors.Is(err, fee.ErrInvalidFeeConfiguration),
		errors.Is(err, market.ErrNotWhitelisted),
		errors.Is(err, market.ErrNotListedForSale),
		errors.Is(err, market.ErrZeroAddress),
		errors.Is(err, market.ErrUnsupportedTreasury),
		errors.Is(err, ledger.ErrZeroAccount):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
