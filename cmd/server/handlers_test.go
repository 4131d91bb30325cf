package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"goldesk/internal/httpx"
	"goldesk/internal/locale"
	"goldesk/internal/news"
	"goldesk/internal/pricing"
	"goldesk/internal/rates"
	"goldesk/internal/router"
	"goldesk/internal/spot"
)

type fakeSource struct {
	price  float64
	closes []float64
}

func (f *fakeSource) Name() string                          { return "fake" }
func (f *fakeSource) Spot(context.Context) (float64, error) { return f.price, nil }
func (f *fakeSource) History(context.Context, string) ([]float64, error) {
	if f.closes == nil {
		return nil, errors.New("no history")
	}
	return f.closes, nil
}

func newApp(t *testing.T, src *fakeSource, newsBody string) *app {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if newsBody == "" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(newsBody))
	}))
	t.Cleanup(srv.Close)

	svc := &pricing.Service{
		Rates: &rates.Provider{
			Client:  rates.NewClient("k", "EGP", rates.WithBaseURL("http://127.0.0.1:1")),
			Default: 47.5,
			Log:     zerolog.Nop(),
		},
		Spot:  &spot.Chain{Primary: src, Default: 2000.0, Log: zerolog.Nop()},
		Cache: &pricing.Cache{TTL: time.Minute},
		Norm:  pricing.Normalizer{OunceToGram: 31.1035, PurityFactor: 0.875},
		Log:   zerolog.Nop(),
	}
	newsClient := news.New(news.Config{Endpoint: srv.URL}, httpx.New(time.Second), zerolog.Nop())
	return &app{
		pricing: svc,
		router: &router.Router{
			Pricing: svc,
			News:    newsClient,
			Topic:   "gold egypt",
			Log:     zerolog.Nop(),
		},
		news:          newsClient,
		topic:         "gold egypt",
		defaultLocale: locale.English,
		log:           zerolog.Nop(),
	}
}

func TestHandlePrice_TwoDecimalText(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePrice(rr, httptest.NewRequest(http.MethodGet, "/api/price", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp priceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	want := (2000.0 * 47.5 / 31.1035) * 0.875
	require.InDelta(t, want, resp.LocalPerGram, 1e-9)
	require.InDelta(t, 2000.0, resp.SpotUSDPerOz, 1e-9)
	require.Equal(t, "none", resp.Degradation)
	require.Equal(t, fmt.Sprintf("Current gold price: %.2f EGP/gram (21K)", want), resp.Text)
}

func TestHandlePrice_ManualOverride(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePrice(rr, httptest.NewRequest(http.MethodGet, "/api/price?override=4100", nil))

	var resp priceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Manual)
	require.Equal(t, "Current gold price (manual): 4100.00 EGP/gram", resp.Text)
}

func TestHandleChange_InsufficientData(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000, closes: []float64{2010}}, "")

	rr := httptest.NewRecorder()
	a.handleChange(rr, httptest.NewRequest(http.MethodGet, "/api/change", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Insufficient data")
}

func TestHandleChange_RisingTrend(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000, closes: []float64{1990, 2010}}, "")

	rr := httptest.NewRecorder()
	a.handleChange(rr, httptest.NewRequest(http.MethodGet, "/api/change", nil))

	var resp changeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Rising)
	require.Contains(t, resp.Text, "May rise")
}

func TestHandleNews_EmptyArrayOnFailure(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handleNews(rr, httptest.NewRequest(http.MethodGet, "/api/news", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"articles":[]}`, rr.Body.String())
}

func TestHandlePurchase(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, "/api/purchase?amount=5000", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp purchaseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	price := (2000.0 * 47.5 / 31.1035) * 0.875
	require.InDelta(t, 5000/price, resp.Grams, 1e-9)
	require.Contains(t, resp.Text, "With 5000.00 EGP")
}

func TestHandlePurchase_SavingsPlan(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, "/api/purchase?amount=1000&months=12", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp purchaseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	price := (2000.0 * 47.5 / 31.1035) * 0.875
	require.InDelta(t, 12000/price, resp.Grams, 1e-9)
	require.Contains(t, resp.Text, "for 12 months")
}

func TestHandlePurchase_MonthsMustBePositive(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	for _, months := range []string{"-3", "0"} {
		rr := httptest.NewRecorder()
		a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, "/api/purchase?amount=1000&months="+months, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code, "months=%s", months)
		require.Contains(t, rr.Body.String(), "number of months greater than 0")
	}
}

func TestHandlePurchase_GoalProgress(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	price := (2000.0 * 47.5 / 31.1035) * 0.875
	grams := 12000 / price
	target := fmt.Sprintf("/api/purchase?amount=1000&months=12&goal=%f", grams*2)

	rr := httptest.NewRecorder()
	a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp purchaseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.InDelta(t, 0.5, resp.GoalProgress, 1e-6)
	require.Contains(t, resp.GoalText, "50.00%")
}

func TestHandlePurchase_Validation(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, "/api/purchase?amount=0", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "greater than 0")

	rr = httptest.NewRecorder()
	a.handlePurchase(rr, httptest.NewRequest(http.MethodGet, "/api/purchase", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "enter the amount correctly")
}

func TestHandleAverage(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000, closes: []float64{1990, 2010}}, "")

	rr := httptest.NewRecorder()
	a.handleAverage(rr, httptest.NewRequest(http.MethodGet, "/api/average?range=1y", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp averageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	want := (2000.0 * 47.5 / 31.1035) * 0.875
	require.InDelta(t, want, resp.AveragePerGram, 1e-9)
	require.Equal(t, fmt.Sprintf("Average gold price over the period: %.2f EGP/gram (21K)", want), resp.Text)

	rr = httptest.NewRecorder()
	a.handleAverage(rr, httptest.NewRequest(http.MethodGet, "/api/average?range=7y", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlePortfolio(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handlePortfolio(rr, httptest.NewRequest(http.MethodGet, "/api/portfolio?grams=2&purchase_price=4000&override=4100", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp portfolioResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.InDelta(t, 8200.0, resp.Value, 1e-9)
	require.InDelta(t, 200.0, resp.ProfitLoss, 1e-9)
	require.Equal(t, "Current value: 8200.00 EGP", resp.ValueText)
}

func TestHandleAsk(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	body := strings.NewReader(`{"query":"price today","locale":"en"}`)
	rr := httptest.NewRecorder()
	a.handleAsk(rr, httptest.NewRequest(http.MethodPost, "/api/ask", body))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	want := (2000.0 * 47.5 / 31.1035) * 0.875
	require.Equal(t, fmt.Sprintf("Current gold price: %.2f EGP/gram (21K)", want), resp["answer"])
}

func TestHandleAsk_BadBody(t *testing.T) {
	a := newApp(t, &fakeSource{price: 2000}, "")

	rr := httptest.NewRecorder()
	a.handleAsk(rr, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"nope":1}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	a.handleAsk(rr, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"query":""}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
