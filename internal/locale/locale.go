// Package locale maps structured results onto user-facing message templates.
// Business logic computes numbers and enums only; every language literal in
// the system lives in this package.
package locale

import (
	"fmt"
	"strings"
)

type Locale string

const (
	Arabic  Locale = "ar"
	English Locale = "en"
)

// Parse resolves a locale tag, defaulting to Arabic for anything unknown.
func Parse(s string) Locale {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English
	default:
		return Arabic
	}
}

type MessageID string

const (
	MsgPriceNow         MessageID = "price_now"         // args: price per gram
	MsgPriceManual      MessageID = "price_manual"      // args: price per gram
	MsgPriceFailed      MessageID = "price_failed"      // no args
	MsgNewsFailed       MessageID = "news_failed"       // no args
	MsgChange           MessageID = "change"            // args: change, percent, trend text
	MsgChangeFailed     MessageID = "change_failed"     // no args
	MsgInsufficientData MessageID = "insufficient_data" // no args
	MsgTrendUp          MessageID = "trend_up"          // no args
	MsgTrendDown        MessageID = "trend_down"        // no args
	MsgPurchase         MessageID = "purchase"          // args: amount, grams, price
	MsgSavings          MessageID = "savings"           // args: monthly, months, grams
	MsgEnterAmount      MessageID = "enter_amount"      // no args
	MsgAmountPositive   MessageID = "amount_positive"   // no args
	MsgMonthlyPositive  MessageID = "monthly_positive"  // no args
	MsgPriceUnavailable MessageID = "price_unavailable" // no args
	MsgSupportedIntents MessageID = "supported_intents" // no args
	MsgHistoryAverage   MessageID = "history_average"   // args: average price
	MsgPortfolioValue   MessageID = "portfolio_value"   // args: value
	MsgProfitLoss       MessageID = "profit_loss"       // args: profit/loss
	MsgGoalProgress     MessageID = "goal_progress"     // args: progress percent
)

// Monetary values in every template are fixed to two fractional digits.
// Tests assert the exact digit count, so treat the precision as a contract.
var templates = map[Locale]map[MessageID]string{
	Arabic: {
		MsgPriceNow:         "سعر الذهب الحالي: %.2f جنيه/جرام (21 قيراط)",
		MsgPriceManual:      "سعر الذهب الحالي (يدوي): %.2f جنيه/جرام",
		MsgPriceFailed:      "تعذر جلب سعر الذهب",
		MsgNewsFailed:       "تعذر جلب الأخبار",
		MsgChange:           "تغير سعر الذهب اليوم: %.2f جنيه/جرام (%.2f%%) - %s",
		MsgChangeFailed:     "تعذر حساب تغير السعر",
		MsgInsufficientData: "لا توجد بيانات كافية",
		MsgTrendUp:          "قد يرتفع",
		MsgTrendDown:        "قد ينخفض",
		MsgPurchase:         "بـ %.2f جنيه، يمكنك شراء %.2f جرام (21 قيراط) بسعر %.2f جنيه/جرام",
		MsgSavings:          "بادخار %.2f جنيه شهريًا لمدة %d شهرًا، يمكنك شراء %.2f جرام (21 قيراط)",
		MsgEnterAmount:      "يرجى إدخال المبلغ بشكل صحيح",
		MsgAmountPositive:   "يرجى إدخال مبلغ أكبر من 0",
		MsgMonthlyPositive:  "يرجى إدخال مبلغ شهري وعدد أشهر أكبر من 0",
		MsgPriceUnavailable: "تعذر جلب السعر الحالي",
		MsgSupportedIntents: "يرجى السؤال عن السعر، التغير، الكمية، أو الأخبار",
		MsgHistoryAverage:   "متوسط سعر الذهب خلال الفترة: %.2f جنيه/جرام (21 قيراط)",
		MsgPortfolioValue:   "القيمة الحالية: %.2f جنيه",
		MsgProfitLoss:       "الربح/الخسارة: %.2f جنيه",
		MsgGoalProgress:     "لقد حققت %.2f%% من هدف ادخار الذهب",
	},
	English: {
		MsgPriceNow:         "Current gold price: %.2f EGP/gram (21K)",
		MsgPriceManual:      "Current gold price (manual): %.2f EGP/gram",
		MsgPriceFailed:      "Failed to fetch gold price",
		MsgNewsFailed:       "Failed to fetch news",
		MsgChange:           "Gold price change today: %.2f EGP/gram (%.2f%%) - %s",
		MsgChangeFailed:     "Failed to calculate price change",
		MsgInsufficientData: "Insufficient data",
		MsgTrendUp:          "May rise",
		MsgTrendDown:        "May fall",
		MsgPurchase:         "With %.2f EGP, you can buy %.2f grams (21K) at %.2f EGP/gram",
		MsgSavings:          "By saving %.2f EGP monthly for %d months, you can buy %.2f grams (21K)",
		MsgEnterAmount:      "Please enter the amount correctly",
		MsgAmountPositive:   "Please enter an amount greater than 0",
		MsgMonthlyPositive:  "Please enter a monthly amount and number of months greater than 0",
		MsgPriceUnavailable: "Failed to fetch current price",
		MsgSupportedIntents: "Please ask about price, change, amount, or news",
		MsgHistoryAverage:   "Average gold price over the period: %.2f EGP/gram (21K)",
		MsgPortfolioValue:   "Current value: %.2f EGP",
		MsgProfitLoss:       "Profit/Loss: %.2f EGP",
		MsgGoalProgress:     "You have reached %.2f%% of your gold savings goal",
	},
}

// Format renders the template for id in loc. Unknown locales fall back to
// Arabic; an unknown id renders as its raw identifier so a missing template
// shows up in output instead of panicking.
func Format(loc Locale, id MessageID, args ...any) string {
	m, ok := templates[loc]
	if !ok {
		m = templates[Arabic]
	}
	tpl, ok := m[id]
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return tpl
	}
	return fmt.Sprintf(tpl, args...)
}
