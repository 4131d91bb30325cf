// Package invest holds the purchase, savings and portfolio arithmetic.
// Everything here is pure; validation failures come back as sentinel errors
// that the caller maps to localized messages.
package invest

import "errors"

var (
	ErrAmountNotPositive = errors.New("invest: amount must be greater than 0")
	ErrMonthsNotPositive = errors.New("invest: months must be greater than 0")
	ErrPriceUnavailable  = errors.New("invest: no effective price available")
)

// PurchaseGrams converts a monetary amount into grams at the given price.
func PurchaseGrams(amount, pricePerGram float64) (float64, error) {
	if amount <= 0 {
		return 0, ErrAmountNotPositive
	}
	if pricePerGram <= 0 {
		return 0, ErrPriceUnavailable
	}
	return amount / pricePerGram, nil
}

// SavingsPlan converts a monthly amount saved for months into total grams.
func SavingsPlan(monthly float64, months int, pricePerGram float64) (float64, error) {
	if monthly <= 0 {
		return 0, ErrAmountNotPositive
	}
	if months <= 0 {
		return 0, ErrMonthsNotPositive
	}
	if pricePerGram <= 0 {
		return 0, ErrPriceUnavailable
	}
	return monthly * float64(months) / pricePerGram, nil
}

// PortfolioValue is the current worth of a holding.
func PortfolioValue(grams, pricePerGram float64) float64 {
	return grams * pricePerGram
}

// ProfitLoss is the gain (or loss, negative) versus the purchase price.
func ProfitLoss(grams, purchasePricePerGram, currentPricePerGram float64) float64 {
	return grams * (currentPricePerGram - purchasePricePerGram)
}

// GoalProgress reports progress toward a savings goal, clamped to [0, 1].
func GoalProgress(totalGrams, goalGrams float64) float64 {
	if goalGrams <= 0 {
		return 0
	}
	p := totalGrams / goalGrams
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
