package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/asset"
	"github.com/taexart/taexmarket/fee"
	"github.com/taexart/taexmarket/market"
)

func (s *Server) registry(r *http.Request) (*asset.Registry, error) {
	addr, err := account.Parse(chi.URLParam(r, "registry"))
	if err != nil {
		return nil, err
	}
	return asset.OpenRegistry(s.store, addr, s.log)
}

func tokenID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", asset.ErrInvalidTokenID, chi.URLParam(r, "id"))
	}
	return id, nil
}

type feeBundleJSON struct {
	PrimaryArtist   uint64 `json:"primaryArtist"`
	SecondaryArtist uint64 `json:"secondaryArtist"`
	SecondaryTaex   uint64 `json:"secondaryTaex"`
}

func (f feeBundleJSON) bundle() fee.Bundle {
	return fee.Bundle{
		PrimaryArtist:   f.PrimaryArtist,
		SecondaryArtist: f.SecondaryArtist,
		SecondaryTaex:   f.SecondaryTaex,
	}
}

func bundleJSON(b fee.Bundle) feeBundleJSON {
	return feeBundleJSON{
		PrimaryArtist:   b.PrimaryArtist,
		SecondaryArtist: b.SecondaryArtist,
		SecondaryTaex:   b.SecondaryTaex,
	}
}

type tokenJSON struct {
	ID          uint64        `json:"id"`
	Owner       string        `json:"owner"`
	Artist      string        `json:"artist"`
	Approved    string        `json:"approved"`
	Listed      bool          `json:"listed"`
	Price       uint64        `json:"price"`
	PrimarySold bool          `json:"primarySold"`
	Fees        feeBundleJSON `json:"fees"`
}

func newTokenJSON(tok asset.TokenData) tokenJSON {
	return tokenJSON{
		ID:          tok.ID,
		Owner:       tok.Owner.String(),
		Artist:      tok.Artist.String(),
		Approved:    tok.Approved.String(),
		Listed:      tok.Listed,
		Price:       tok.Price,
		PrimarySold: tok.PrimarySold,
		Fees:        bundleJSON(tok.Fees),
	}
}

type receiptJSON struct {
	ID                string `json:"id"`
	Kind              string `json:"kind"`
	Registry          string `json:"registry"`
	TokenID           uint64 `json:"tokenId"`
	Buyer             string `json:"buyer"`
	Seller            string `json:"seller"`
	Price             uint64 `json:"price"`
	ArtistAmount      uint64 `json:"artistAmount"`
	PlatformAmount    uint64 `json:"platformAmount"`
	SellerAmount      uint64 `json:"sellerAmount"`
	Refund            uint64 `json:"refund"`
	ArtistRecipient   string `json:"artistRecipient"`
	PlatformRecipient string `json:"platformRecipient"`
}

func newReceiptJSON(r *market.Receipt) receiptJSON {
	return receiptJSON{
		ID:                r.ID.String(),
		Kind:              string(r.Kind),
		Registry:          r.Registry.String(),
		TokenID:           r.TokenID,
		Buyer:             r.Buyer.String(),
		Seller:            r.Seller.String(),
		Price:             r.Price,
		ArtistAmount:      r.ArtistAmount,
		PlatformAmount:    r.PlatformAmount,
		SellerAmount:      r.SellerAmount,
		Refund:            r.Refund,
		ArtistRecipient:   r.ArtistRecipient.String(),
		PlatformRecipient: r.PlatformRecipient.String(),
	}
}

// --- registries -----------------------------------------------------------

func (s *Server) handleCreateRegistry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address      string        `json:"address"`
		Owner        string        `json:"owner"`
		Name         string        `json:"name"`
		Symbol       string        `json:"symbol"`
		BaseURI      string        `json:"baseUri"`
		PrimaryPrice uint64        `json:"primaryPrice"`
		DefaultFees  feeBundleJSON `json:"defaultFees"`
		MaxSupply    uint64        `json:"maxSupply"`
		StrictFees   bool          `json:"strictFees"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	addr, err := account.Parse(req.Address)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	owner, err := account.Parse(req.Owner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	reg, err := asset.NewRegistry(s.store, addr, owner, asset.Config{
		Name:         req.Name,
		Symbol:       req.Symbol,
		BaseURI:      req.BaseURI,
		PrimaryPrice: req.PrimaryPrice,
		DefaultFees:  req.DefaultFees.bundle(),
		MaxSupply:    req.MaxSupply,
		StrictFees:   req.StrictFees,
	}, s.log)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"address": reg.Address().String()})
}

func (s *Server) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := reg.Record()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":      rec.Address.String(),
		"owner":        rec.Owner.String(),
		"name":         rec.Config.Name,
		"symbol":       rec.Config.Symbol,
		"baseUri":      rec.Config.BaseURI,
		"primaryPrice": rec.Config.PrimaryPrice,
		"defaultFees":  bundleJSON(rec.Config.DefaultFees),
		"maxSupply":    rec.Config.MaxSupply,
		"strictFees":   rec.Config.StrictFees,
		"minted":       rec.NextID - 1,
	})
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string         `json:"caller"`
		To     string         `json:"to"`
		Count  uint64         `json:"count"`
		Fees   *feeBundleJSON `json:"fees"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	to, err := account.Parse(req.To)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var ids []uint64
	switch {
	case req.Fees != nil:
		id, err := reg.MintWithSpecifiedFee(caller, to, req.Fees.bundle())
		if err != nil {
			writeError(w, err)
			return
		}
		ids = []uint64{id}
	case req.Count > 1:
		ids, err = reg.BatchMint(caller, to, req.Count)
		if err != nil {
			writeError(w, err)
			return
		}
	default:
		id, err := reg.Mint(caller, to)
		if err != nil {
			writeError(w, err)
			return
		}
		ids = []uint64{id}
	}
	writeJSON(w, http.StatusCreated, map[string][]uint64{"ids": ids})
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := tokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tok, err := reg.TokenData(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTokenJSON(tok))
}

func (s *Server) handleTokenURI(w http.ResponseWriter, r *http.Request) {
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := tokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uri, err := reg.TokenURI(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uri": uri})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Price  uint64 `json:"price"`
	}
	s.tokenAction(w, r, &req, func(reg *asset.Registry, id uint64) error {
		caller, err := account.Parse(req.Caller)
		if err != nil {
			return err
		}
		return reg.ListForSale(caller, id, req.Price)
	})
}

func (s *Server) handleUnlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	s.tokenAction(w, r, &req, func(reg *asset.Registry, id uint64) error {
		caller, err := account.Parse(req.Caller)
		if err != nil {
			return err
		}
		return reg.UnlistFromSale(caller, id)
	})
}

func (s *Server) handleAdjustPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Price  uint64 `json:"price"`
	}
	s.tokenAction(w, r, &req, func(reg *asset.Registry, id uint64) error {
		caller, err := account.Parse(req.Caller)
		if err != nil {
			return err
		}
		return reg.AdjustPrice(caller, id, req.Price)
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Spender string `json:"spender"`
	}
	s.tokenAction(w, r, &req, func(reg *asset.Registry, id uint64) error {
		caller, err := account.Parse(req.Caller)
		if err != nil {
			return err
		}
		spender, err := account.Parse(req.Spender)
		if err != nil {
			return err
		}
		return reg.Approve(caller, spender, id)
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	s.tokenAction(w, r, &req, func(reg *asset.Registry, id uint64) error {
		caller, err := account.Parse(req.Caller)
		if err != nil {
			return err
		}
		from, err := account.Parse(req.From)
		if err != nil {
			return err
		}
		to, err := account.Parse(req.To)
		if err != nil {
			return err
		}
		return reg.TransferFrom(caller, from, to, id)
	})
}

// tokenAction handles the shared decode/open/act/respond shape of the
// per-token mutations.
func (s *Server) tokenAction(w http.ResponseWriter, r *http.Request, req interface{}, act func(reg *asset.Registry, id uint64) error) {
	if err := decode(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := tokenID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := act(reg, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBatchList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string   `json:"caller"`
		IDs    []uint64 `json:"ids"`
		Price  uint64   `json:"price"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := reg.BatchListForSale(caller, req.IDs, req.Price); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetDefaults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller       string        `json:"caller"`
		PrimaryPrice uint64        `json:"primaryPrice"`
		Fees         feeBundleJSON `json:"fees"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := reg.SetDefaultData(caller, req.PrimaryPrice, req.Fees.bundle()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetBaseURI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		BaseURI string `json:"baseUri"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reg, err := s.registry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := reg.SetBaseURI(caller, req.BaseURI); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- market ---------------------------------------------------------------

func (s *Server) handleWhitelistAdd(w http.ResponseWriter, r *http.Request) {
	s.whitelistChange(w, r, s.mkt.AddToWhitelist)
}

func (s *Server) handleWhitelistRemove(w http.ResponseWriter, r *http.Request) {
	s.whitelistChange(w, r, s.mkt.RemoveFromWhitelist)
}

func (s *Server) whitelistChange(w http.ResponseWriter, r *http.Request, change func(caller, registry account.Address) error) {
	var req struct {
		Caller   string `json:"caller"`
		Registry string `json:"registry"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	registry, err := account.Parse(req.Registry)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := change(caller, registry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWhitelistCheck(w http.ResponseWriter, r *http.Request) {
	registry, err := account.Parse(chi.URLParam(r, "registry"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	ok, err := s.mkt.IsWhitelisted(registry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"whitelisted": ok})
}

func (s *Server) handlePrimarySale(w http.ResponseWriter, r *http.Request) {
	s.sale(w, r, s.mkt.PrimarySale)
}

func (s *Server) handleSecondarySale(w http.ResponseWriter, r *http.Request) {
	s.sale(w, r, s.mkt.SecondarySale)
}

func (s *Server) sale(w http.ResponseWriter, r *http.Request, settle func(buyer, registry account.Address, tokenID, payment uint64) (*market.Receipt, error)) {
	var req struct {
		Buyer    string `json:"buyer"`
		Registry string `json:"registry"`
		TokenID  uint64 `json:"tokenId"`
		Payment  uint64 `json:"payment"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	buyer, err := account.Parse(req.Buyer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	registry, err := account.Parse(req.Registry)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	receipt, err := settle(buyer, registry, req.TokenID, req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	s.receipts.SetDefault(receipt.ID.String(), receipt)
	writeJSON(w, http.StatusCreated, newReceiptJSON(receipt))
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	v, ok := s.receipts.Get(id.String())
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "receipt not found"})
		return
	}
	writeJSON(w, http.StatusOK, newReceiptJSON(v.(*market.Receipt)))
}

func (s *Server) handleSetTreasuries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Artist string `json:"artist"`
		Taex   string `json:"taex"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	artist, err := account.Parse(req.Artist)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	taex, err := account.Parse(req.Taex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.mkt.SetTreasuries(caller, artist, taex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetPlatformTreasury(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller   string `json:"caller"`
		Platform string `json:"platform"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := account.Parse(req.Caller)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	platform, err := account.Parse(req.Platform)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.mkt.SetPlatformTreasury(caller, platform); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- ledger ---------------------------------------------------------------

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := account.Parse(chi.URLParam(r, "account"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	bal, err := s.led.Balance(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": addr.String(),
		"balance": bal,
	})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount uint64 `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	addr, err := account.Parse(chi.URLParam(r, "account"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.led.Deposit(addr, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
