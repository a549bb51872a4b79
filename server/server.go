// Package server exposes the registry, marketplace and ledger operations
// over HTTP. Callers identify themselves by address in the request body;
// authentication of those addresses is out of scope here and expected from
// the deployment in front of the daemon.
package server

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taexart/taexmarket/ledger"
	"github.com/taexart/taexmarket/market"
	"github.com/taexart/taexmarket/state"
)

// Options tunes the HTTP surface.
type Options struct {
	// RateLimit is requests per second per client; Burst the bucket size.
	RateLimit rate.Limit
	Burst     int
}

// DefaultOptions matches the daemon defaults.
func DefaultOptions() Options {
	return Options{RateLimit: 50, Burst: 100}
}

// Server wires the domain packages to a chi router.
type Server struct {
	store state.Store
	mkt   *market.Marketplace
	led   *ledger.Ledger
	log   *zap.Logger
	opts  Options

	// receipts are immutable once issued, so settled sales are kept here
	// for GET /receipts/{id} lookups.
	receipts *cache.Cache

	// limiters holds one token bucket per client host, dropped after an
	// idle period.
	limiters *cache.Cache
}

// New builds a server over the shared store and a constructed marketplace.
func New(store state.Store, mkt *market.Marketplace, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:    store,
		mkt:      mkt,
		led:      ledger.New(store),
		log:      log,
		opts:     opts,
		receipts: cache.New(24*time.Hour, time.Hour),
		limiters: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimit)
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)

	r.Route("/registries", func(r chi.Router) {
		r.Post("/", s.handleCreateRegistry)
		r.Route("/{registry}", func(r chi.Router) {
			r.Get("/", s.handleGetRegistry)
			r.Post("/mint", s.handleMint)
			r.Post("/list-batch", s.handleBatchList)
			r.Post("/defaults", s.handleSetDefaults)
			r.Post("/base-uri", s.handleSetBaseURI)
			r.Route("/tokens/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetToken)
				r.Get("/uri", s.handleTokenURI)
				r.Post("/list", s.handleList)
				r.Post("/unlist", s.handleUnlist)
				r.Post("/price", s.handleAdjustPrice)
				r.Post("/approve", s.handleApprove)
				r.Post("/transfer", s.handleTransfer)
			})
		})
	})

	r.Route("/market", func(r chi.Router) {
		r.Post("/whitelist", s.handleWhitelistAdd)
		r.Post("/whitelist/remove", s.handleWhitelistRemove)
		r.Get("/whitelist/{registry}", s.handleWhitelistCheck)
		r.Post("/primary", s.handlePrimarySale)
		r.Post("/secondary", s.handleSecondarySale)
		r.Post("/treasuries", s.handleSetTreasuries)
		r.Post("/platform-treasury", s.handleSetPlatformTreasury)
	})

	r.Get("/receipts/{id}", s.handleGetReceipt)

	r.Route("/ledger/{account}", func(r chi.Router) {
		r.Get("/", s.handleBalance)
		r.Post("/deposit", s.handleDeposit)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimit applies a per-client token bucket keyed by remote host.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		var lim *rate.Limiter
		if v, ok := s.limiters.Get(host); ok {
			lim = v.(*rate.Limiter)
		} else {
			lim = rate.NewLimiter(s.opts.RateLimit, s.opts.Burst)
			s.limiters.SetDefault(host, lim)
		}

		if !lim.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}
