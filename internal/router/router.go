// Package router classifies free-text queries into a fixed set of intents
// and dispatches them to the matching handler.
package router

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"goldesk/internal/invest"
	"goldesk/internal/locale"
	"goldesk/internal/news"
	"goldesk/internal/pricing"
	"goldesk/internal/textgen"
)

type Intent int

const (
	IntentUnknown Intent = iota
	IntentPrice
	IntentNews
	IntentChange
	IntentPurchase
)

// rule is one classification step. Keywords for both supported locales sit
// in the same rule, so whichever language the query uses, the same branch
// fires.
type rule struct {
	intent   Intent
	keywords []string
}

// rules is checked in order; the first match wins, which is the tie-break
// policy when a query contains keywords from several rules.
var rules = []rule{
	{IntentPrice, []string{"سعر", "price"}},
	{IntentNews, []string{"أخبار", "news"}},
	{IntentChange, []string{"تغير", "change"}},
	{IntentPurchase, []string{"كم ذهب", "how much gold"}},
}

var amountRe = regexp.MustCompile(`\d+(\.\d+)?`)

// Classify returns the intent for query and, for purchase queries, the first
// numeric token found in it (empty when extraction fails).
func Classify(query string) (Intent, string) {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				if r.intent == IntentPurchase {
					return IntentPurchase, amountRe.FindString(query)
				}
				return r.intent, ""
			}
		}
	}
	return IntentUnknown, ""
}

// Router answers free-text queries. Gen may be nil, in which case unknown
// queries get the static guidance message immediately.
type Router struct {
	Pricing *pricing.Service
	News    *news.Client
	Gen     textgen.Generator
	Topic   string
	Log     zerolog.Logger
}

// Answer returns a display-ready answer string. It never fails: every
// degraded path ends in a localized message, not an error.
func (r *Router) Answer(ctx context.Context, loc locale.Locale, query string, override float64) string {
	intent, amount := Classify(query)
	switch intent {
	case IntentPrice:
		return r.priceAnswer(ctx, loc, override)
	case IntentNews:
		return r.newsAnswer(ctx, loc)
	case IntentChange:
		return r.changeAnswer(ctx, loc)
	case IntentPurchase:
		return r.purchaseAnswer(ctx, loc, amount, override)
	default:
		return r.fallbackAnswer(ctx, loc, query)
	}
}

func (r *Router) priceAnswer(ctx context.Context, loc locale.Locale, override float64) string {
	p, err := r.Pricing.Effective(ctx, override)
	if err != nil {
		return locale.Format(loc, locale.MsgPriceFailed)
	}
	if p.Manual {
		return locale.Format(loc, locale.MsgPriceManual, p.LocalPerGram)
	}
	return locale.Format(loc, locale.MsgPriceNow, p.LocalPerGram)
}

func (r *Router) newsAnswer(ctx context.Context, loc locale.Locale) string {
	articles := r.News.TopArticles(ctx, r.Topic)
	if len(articles) == 0 {
		return locale.Format(loc, locale.MsgNewsFailed)
	}
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		lines = append(lines, a.Title+" - "+a.Description)
	}
	return strings.Join(lines, "\n")
}

func (r *Router) changeAnswer(ctx context.Context, loc locale.Locale) string {
	ch, err := r.Pricing.Change(ctx)
	if errors.Is(err, pricing.ErrInsufficientData) {
		return locale.Format(loc, locale.MsgInsufficientData)
	}
	if err != nil {
		return locale.Format(loc, locale.MsgChangeFailed)
	}
	trend := locale.MsgTrendDown
	if ch.Rising {
		trend = locale.MsgTrendUp
	}
	return locale.Format(loc, locale.MsgChange, ch.PerGram, ch.Percent, locale.Format(loc, trend))
}

func (r *Router) purchaseAnswer(ctx context.Context, loc locale.Locale, amount string, override float64) string {
	if amount == "" {
		return locale.Format(loc, locale.MsgEnterAmount)
	}
	amt, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return locale.Format(loc, locale.MsgEnterAmount)
	}
	p, err := r.Pricing.Effective(ctx, override)
	if err != nil {
		return locale.Format(loc, locale.MsgPriceUnavailable)
	}
	grams, err := invest.PurchaseGrams(amt, p.LocalPerGram)
	switch {
	case errors.Is(err, invest.ErrAmountNotPositive):
		return locale.Format(loc, locale.MsgAmountPositive)
	case errors.Is(err, invest.ErrPriceUnavailable):
		return locale.Format(loc, locale.MsgPriceUnavailable)
	case err != nil:
		return locale.Format(loc, locale.MsgEnterAmount)
	}
	return locale.Format(loc, locale.MsgPurchase, amt, grams, p.LocalPerGram)
}

func (r *Router) fallbackAnswer(ctx context.Context, loc locale.Locale, query string) string {
	if r.Gen != nil {
		out, err := r.Gen.Generate(ctx, query)
		if err == nil {
			return out
		}
		r.Log.Warn().Err(err).Msg("text generation failed, using static guidance")
	}
	return locale.Format(loc, locale.MsgSupportedIntents)
}
