package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"goldesk/internal/invest"
	"goldesk/internal/locale"
	"goldesk/internal/news"
	"goldesk/internal/pricing"
	"goldesk/internal/router"
)

type app struct {
	pricing       *pricing.Service
	router        *router.Router
	news          *news.Client
	topic         string
	defaultLocale locale.Locale
	log           zerolog.Logger
}

// historical ranges accepted by the trend endpoint
var trendRanges = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true, "5y": true,
}

func (a *app) locale(r *http.Request) locale.Locale {
	if v := r.URL.Query().Get("locale"); v != "" {
		return locale.Parse(v)
	}
	return a.defaultLocale
}

// override reads the manual price parameter; absent or unparseable means no
// override.
func override(r *http.Request) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get("override"), 64)
	if err != nil {
		return 0
	}
	return v
}

type priceResponse struct {
	pricing.Price
	Degradation string `json:"degradation"`
	Text        string `json:"text"`
}

func (a *app) handlePrice(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	p, err := a.pricing.Effective(r.Context(), override(r))
	if err != nil {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgPriceFailed)})
		return
	}
	id := locale.MsgPriceNow
	if p.Manual {
		id = locale.MsgPriceManual
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Price:       p,
		Degradation: p.Degradation.String(),
		Text:        locale.Format(loc, id, p.LocalPerGram),
	})
}

type textResponse struct {
	Text string `json:"text"`
}

type changeResponse struct {
	ChangePerGram float64 `json:"change_per_gram"`
	Percent       float64 `json:"percent"`
	Rising        bool    `json:"rising"`
	Text          string  `json:"text"`
}

func (a *app) handleChange(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	ch, err := a.pricing.Change(r.Context())
	if errors.Is(err, pricing.ErrInsufficientData) {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgInsufficientData)})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgChangeFailed)})
		return
	}
	trend := locale.MsgTrendDown
	if ch.Rising {
		trend = locale.MsgTrendUp
	}
	writeJSON(w, http.StatusOK, changeResponse{
		ChangePerGram: ch.PerGram,
		Percent:       ch.Percent,
		Rising:        ch.Rising,
		Text:          locale.Format(loc, locale.MsgChange, ch.PerGram, ch.Percent, locale.Format(loc, trend)),
	})
}

func (a *app) handleNews(w http.ResponseWriter, r *http.Request) {
	articles := a.news.TopArticles(r.Context(), a.topic)
	if articles == nil {
		articles = []news.Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

type trendResponse struct {
	Range           string  `json:"range"`
	ReturnPercent   float64 `json:"return_percent"`
	AveragePerGram  float64 `json:"average_per_gram"`
	MA50PerGram     float64 `json:"ma50_per_gram,omitempty"`
	VolatilityLevel float64 `json:"volatility_level"`
	Volatility      string  `json:"volatility"`
	AverageText     string  `json:"average_text"`
}

func (a *app) handleTrend(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "1y"
	}
	if !trendRanges[rng] {
		http.Error(w, "invalid range", http.StatusBadRequest)
		return
	}
	tr, err := a.pricing.Trend(r.Context(), rng)
	if err != nil {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgInsufficientData)})
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{
		Range:           rng,
		ReturnPercent:   tr.ReturnPercent,
		AveragePerGram:  tr.AveragePerGram,
		MA50PerGram:     tr.MA50PerGram,
		VolatilityLevel: tr.VolatilityLevel,
		Volatility:      string(tr.Volatility),
		AverageText:     locale.Format(loc, locale.MsgHistoryAverage, tr.AveragePerGram),
	})
}

type averageResponse struct {
	Range          string  `json:"range"`
	AveragePerGram float64 `json:"average_per_gram"`
	Text           string  `json:"text"`
}

func (a *app) handleAverage(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "1y"
	}
	if !trendRanges[rng] {
		http.Error(w, "invalid range", http.StatusBadRequest)
		return
	}
	avg, err := a.pricing.HistoryAverage(r.Context(), rng)
	if err != nil {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgInsufficientData)})
		return
	}
	writeJSON(w, http.StatusOK, averageResponse{
		Range:          rng,
		AveragePerGram: avg,
		Text:           locale.Format(loc, locale.MsgHistoryAverage, avg),
	})
}

type purchaseResponse struct {
	Grams        float64 `json:"grams"`
	PricePerGram float64 `json:"price_per_gram"`
	Text         string  `json:"text"`
	GoalProgress float64 `json:"goal_progress,omitempty"`
	GoalText     string  `json:"goal_text,omitempty"`
}

// handlePurchase serves both the one-off purchase and the monthly savings
// plan; a present months parameter switches to the savings calculation, and
// an optional goal (in grams) adds progress toward it.
func (a *app) handlePurchase(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, textResponse{Text: locale.Format(loc, locale.MsgEnterAmount)})
		return
	}
	months := 0
	savings := false
	if v := r.URL.Query().Get("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, textResponse{Text: locale.Format(loc, locale.MsgMonthlyPositive)})
			return
		}
		savings = true
	}

	p, perr := a.pricing.Effective(r.Context(), override(r))
	if perr != nil {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgPriceUnavailable)})
		return
	}

	var grams float64
	var text string
	if savings {
		grams, err = invest.SavingsPlan(amount, months, p.LocalPerGram)
		text = locale.Format(loc, locale.MsgSavings, amount, months, grams)
	} else {
		grams, err = invest.PurchaseGrams(amount, p.LocalPerGram)
		text = locale.Format(loc, locale.MsgPurchase, amount, grams, p.LocalPerGram)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, textResponse{Text: validationMessage(loc, err)})
		return
	}

	resp := purchaseResponse{Grams: grams, PricePerGram: p.LocalPerGram, Text: text}
	if goal, gerr := strconv.ParseFloat(r.URL.Query().Get("goal"), 64); gerr == nil && goal > 0 {
		resp.GoalProgress = invest.GoalProgress(grams, goal)
		resp.GoalText = locale.Format(loc, locale.MsgGoalProgress, resp.GoalProgress*100)
	}
	writeJSON(w, http.StatusOK, resp)
}

func validationMessage(loc locale.Locale, err error) string {
	switch {
	case errors.Is(err, invest.ErrAmountNotPositive):
		return locale.Format(loc, locale.MsgAmountPositive)
	case errors.Is(err, invest.ErrMonthsNotPositive):
		return locale.Format(loc, locale.MsgMonthlyPositive)
	case errors.Is(err, invest.ErrPriceUnavailable):
		return locale.Format(loc, locale.MsgPriceUnavailable)
	default:
		return locale.Format(loc, locale.MsgEnterAmount)
	}
}

type portfolioResponse struct {
	Value          float64 `json:"value"`
	ProfitLoss     float64 `json:"profit_loss"`
	ValueText      string  `json:"value_text"`
	ProfitLossText string  `json:"profit_loss_text"`
}

func (a *app) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	loc := a.locale(r)
	grams, err1 := strconv.ParseFloat(r.URL.Query().Get("grams"), 64)
	buyPrice, err2 := strconv.ParseFloat(r.URL.Query().Get("purchase_price"), 64)
	if err1 != nil || err2 != nil || grams <= 0 || buyPrice <= 0 {
		writeJSON(w, http.StatusBadRequest, textResponse{Text: locale.Format(loc, locale.MsgEnterAmount)})
		return
	}
	p, err := a.pricing.Effective(r.Context(), override(r))
	if err != nil || p.LocalPerGram <= 0 {
		writeJSON(w, http.StatusOK, textResponse{Text: locale.Format(loc, locale.MsgPriceUnavailable)})
		return
	}
	value := invest.PortfolioValue(grams, p.LocalPerGram)
	pl := invest.ProfitLoss(grams, buyPrice, p.LocalPerGram)
	writeJSON(w, http.StatusOK, portfolioResponse{
		Value:          value,
		ProfitLoss:     pl,
		ValueText:      locale.Format(loc, locale.MsgPortfolioValue, value),
		ProfitLossText: locale.Format(loc, locale.MsgProfitLoss, pl),
	})
}

type askBody struct {
	Query    string  `json:"query"`
	Override float64 `json:"override,omitempty"`
	Locale   string  `json:"locale,omitempty"`
}

func (a *app) handleAsk(w http.ResponseWriter, r *http.Request) {
	var b askBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if b.Query == "" {
		http.Error(w, "query cannot be empty", http.StatusBadRequest)
		return
	}
	loc := a.defaultLocale
	if b.Locale != "" {
		loc = locale.Parse(b.Locale)
	}
	answer := a.router.Answer(r.Context(), loc, b.Query, b.Override)
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// --- middleware ---

func withRequestID(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set("X-Request-ID", id)
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info().
				Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

// withRecover protects handlers from panics.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// withBodyLimit caps request body size to avoid memory abuse.
func withBodyLimit(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
