package router_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
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

type stubSource struct {
	price  float64
	closes []float64
}

func (s *stubSource) Name() string                          { return "stub" }
func (s *stubSource) Spot(context.Context) (float64, error) { return s.price, nil }
func (s *stubSource) History(context.Context, string) ([]float64, error) {
	if s.closes == nil {
		return nil, errors.New("no history")
	}
	return s.closes, nil
}

type stubGen struct {
	out string
	err error
}

func (g stubGen) Generate(context.Context, string) (string, error) { return g.out, g.err }

func newPricing(src *stubSource) *pricing.Service {
	return &pricing.Service{
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
}

func newRouter(t *testing.T, src *stubSource, newsBody string, gen *stubGen) *router.Router {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if newsBody == "" {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(newsBody))
	}))
	t.Cleanup(srv.Close)

	r := &router.Router{
		Pricing: newPricing(src),
		News:    news.New(news.Config{Endpoint: srv.URL}, httpx.New(time.Second), zerolog.Nop()),
		Topic:   "gold egypt",
		Log:     zerolog.Nop(),
	}
	if gen != nil {
		r.Gen = *gen
	}
	return r
}

func TestClassify(t *testing.T) {
	cases := []struct {
		query  string
		intent router.Intent
		amount string
	}{
		{"price today", router.IntentPrice, ""},
		{"السعر اليوم", router.IntentPrice, ""},
		{"what is the gold PRICE?", router.IntentPrice, ""},
		{"ما هي أخبار الذهب في مصر؟", router.IntentNews, ""},
		{"any news about gold?", router.IntentNews, ""},
		{"what's the change today?", router.IntentChange, ""},
		{"ما هو تغير سعر الذهب", router.IntentPrice, ""}, // contains سعر, price wins
		{"تغير الذهب اليوم", router.IntentChange, ""},
		{"how much gold for 5000", router.IntentPurchase, "5000"},
		{"كم ذهب أشتري بـ 5000 جنيه؟", router.IntentPurchase, "5000"},
		{"how much gold for 1500.75 exactly", router.IntentPurchase, "1500.75"},
		{"how much gold can I get", router.IntentPurchase, ""},
		{"hello there", router.IntentUnknown, ""},
		{"", router.IntentUnknown, ""},
	}
	for _, c := range cases {
		intent, amount := router.Classify(c.query)
		require.Equal(t, c.intent, intent, "query %q", c.query)
		require.Equal(t, c.amount, amount, "query %q", c.query)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// order is the tie-break policy: price before news before change
	intent, _ := router.Classify("news about the price change")
	require.Equal(t, router.IntentPrice, intent)
}

func TestAnswer_PriceBranch_BothLocales(t *testing.T) {
	src := &stubSource{price: 2000}
	r := newRouter(t, src, "", nil)

	wantPrice := (2000.0 * 47.5 / 31.1035) * 0.875
	en := r.Answer(context.Background(), locale.English, "price today", 0)
	require.Equal(t, fmt.Sprintf("Current gold price: %.2f EGP/gram (21K)", wantPrice), en)

	ar := r.Answer(context.Background(), locale.Arabic, "السعر اليوم", 0)
	require.Contains(t, ar, fmt.Sprintf("%.2f", wantPrice))
	require.Contains(t, ar, "سعر الذهب الحالي")
}

func TestAnswer_PriceBranch_ManualOverride(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", nil)
	got := r.Answer(context.Background(), locale.English, "price", 4100)
	require.Equal(t, "Current gold price (manual): 4100.00 EGP/gram", got)
}

func TestAnswer_PurchaseBranch(t *testing.T) {
	src := &stubSource{price: 2000}
	r := newRouter(t, src, "", nil)

	price := (2000.0 * 47.5 / 31.1035) * 0.875
	grams := 5000.0 / price
	want := fmt.Sprintf("With 5000.00 EGP, you can buy %.2f grams (21K) at %.2f EGP/gram", grams, price)
	require.Equal(t, want, r.Answer(context.Background(), locale.English, "how much gold for 5000", 0))
}

func TestAnswer_PurchaseBranch_NoAmount(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", nil)
	got := r.Answer(context.Background(), locale.English, "how much gold can I buy", 0)
	require.Equal(t, "Please enter the amount correctly", got)
}

func TestAnswer_NewsBranch(t *testing.T) {
	body := `{"articles":[{"title":"t1","description":"d1"},{"title":"t2","description":"d2"}]}`
	r := newRouter(t, &stubSource{price: 2000}, body, nil)
	got := r.Answer(context.Background(), locale.English, "gold news", 0)
	require.Equal(t, "t1 - d1\nt2 - d2", got)
}

func TestAnswer_NewsBranch_FailureMessage(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", nil)
	require.Equal(t, "Failed to fetch news", r.Answer(context.Background(), locale.English, "news", 0))
}

func TestAnswer_ChangeBranch(t *testing.T) {
	src := &stubSource{price: 2000, closes: []float64{1990, 2010}}
	r := newRouter(t, src, "", nil)
	got := r.Answer(context.Background(), locale.English, "price change today", 0)
	// "price" wins over "change" by rule order
	require.Contains(t, got, "Current gold price")

	got = r.Answer(context.Background(), locale.English, "change today", 0)
	require.Contains(t, got, "Gold price change today:")
	require.Contains(t, got, "May rise")
}

func TestAnswer_ChangeBranch_InsufficientData(t *testing.T) {
	src := &stubSource{price: 2000, closes: []float64{2010}}
	r := newRouter(t, src, "", nil)
	require.Equal(t, "Insufficient data", r.Answer(context.Background(), locale.English, "change today", 0))
}

func TestAnswer_FallbackToGenerator(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", &stubGen{out: "Gold is shiny."})
	require.Equal(t, "Gold is shiny.", r.Answer(context.Background(), locale.English, "tell me something", 0))
}

func TestAnswer_FallbackGuidanceWhenGeneratorFails(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", &stubGen{err: errors.New("model loading")})
	require.Equal(t, "Please ask about price, change, amount, or news",
		r.Answer(context.Background(), locale.English, "tell me something", 0))
}

func TestAnswer_FallbackGuidanceWhenNoGenerator(t *testing.T) {
	r := newRouter(t, &stubSource{price: 2000}, "", nil)
	require.Equal(t, "يرجى السؤال عن السعر، التغير، الكمية، أو الأخبار",
		r.Answer(context.Background(), locale.Arabic, "مرحبا", 0))
}
