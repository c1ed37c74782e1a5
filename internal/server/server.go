package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pricefeed/internal/provider"
	"pricefeed/internal/resolver"
)

// Machine-readable error codes surfaced to clients. A 503 with one of these
// is an expected degraded condition, not a server fault.
const (
	codePriceUnavailable = "LIVE_PRICE_UNAVAILABLE"
	codeDataUnavailable  = "LIVE_DATA_UNAVAILABLE"
)

// PriceService is the resolver surface the handlers depend on.
type PriceService interface {
	GetPrice(ctx context.Context, raw string) (resolver.Quote, error)
	GetList(ctx context.Context) (resolver.ListQuote, error)
	Candles(ctx context.Context, pair string, limit int) ([]provider.Candle, error)
}

type Server struct {
	svc PriceService
	log *zap.Logger
}

func New(svc PriceService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log}
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/prices", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/chart/{pair}", s.handleChart)
		r.Get("/{symbol}", s.handleSymbol)
	})
	return r
}

type listResponse struct {
	Data     []provider.PriceRecord `json:"data"`
	Prices   map[string]float64     `json:"prices"`
	Stale    bool                   `json:"stale,omitempty"`
	Fallback string                 `json:"fallback,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	lq, err := s.svc.GetList(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, listResponse{
			Data:   []provider.PriceRecord{},
			Prices: map[string]float64{},
			Error:  codePriceUnavailable,
		})
		return
	}
	resp := listResponse{Data: lq.Snapshot.Records, Prices: lq.Snapshot.Prices, Stale: lq.Stale}
	if lq.Static {
		resp.Fallback = "static"
	}
	writeJSON(w, http.StatusOK, resp)
}

type priceResponse struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	High24h   *float64 `json:"high_24h,omitempty"`
	Low24h    *float64 `json:"low_24h,omitempty"`
	Volume24h *float64 `json:"volume_24h,omitempty"`
	Stale     bool     `json:"stale,omitempty"`
	Cached    bool     `json:"cached,omitempty"`
	Fallback  string   `json:"fallback,omitempty"`
}

type priceError struct {
	Error  string `json:"error"`
	Symbol string `json:"symbol,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "symbol")
	q, err := s.svc.GetPrice(r.Context(), raw)
	if err != nil {
		// Both branches are 503: a known degraded condition, never a 500.
		if errors.Is(err, resolver.ErrUnsupportedSymbol) {
			writeJSON(w, http.StatusServiceUnavailable, priceError{
				Error:  codeDataUnavailable,
				Symbol: raw,
				Detail: "unsupported symbol",
			})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, priceError{
			Error:  codePriceUnavailable,
			Symbol: raw,
			Detail: err.Error(),
		})
		return
	}
	resp := priceResponse{
		Symbol:    q.Record.Symbol,
		Price:     q.Record.Price,
		High24h:   q.Record.High24h,
		Low24h:    q.Record.Low24h,
		Volume24h: q.Record.Volume24h,
		Stale:     q.Stale,
		Cached:    q.Cached,
	}
	if q.Static {
		resp.Fallback = "static"
	}
	writeJSON(w, http.StatusOK, resp)
}

type chartResponse struct {
	Candles []provider.Candle `json:"candles"`
}

// handleChart is best-effort: any failure yields an empty candle series with
// a 200, never an error status.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	pair := strings.ToUpper(chi.URLParam(r, "pair"))
	candles, err := s.svc.Candles(r.Context(), pair, 48)
	if err != nil {
		s.log.Warn("chart fetch failed", zap.String("pair", pair), zap.Error(err))
		candles = nil
	}
	if candles == nil {
		candles = []provider.Candle{}
	}
	writeJSON(w, http.StatusOK, chartResponse{Candles: candles})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
