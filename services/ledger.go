// services/ledger.go
package services

import (
	"fmt"
	"time"

	"boutiquepro-backend/models"
	"boutiquepro-backend/utils"

	"github.com/shopspring/decimal"
)

// MaxInstallments caps how far a credit sale may be split.
const MaxInstallments = 24

var oneHundred = decimal.NewFromInt(100)

// ComputePricing derives the amounts of a sale from its raw inputs:
//
//	total = max(0, base - discount)
//	fee   = total * feeRate / 100
//	net   = total - fee
//
// Total is never negative. Net can go negative only when feeRate exceeds 100,
// which callers are expected to prevent.
func ComputePricing(base, discount, feeRate decimal.Decimal) (total, fee, net decimal.Decimal) {
	total = base.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	fee = total.Mul(feeRate).Div(oneHundred).Round(2)
	net = total.Sub(fee)
	return total, fee, net
}

// BuildInstallments creates the receivable schedule for a sale.
//
// A cash sale settles immediately: one installment dated at the sale date,
// already fully paid. A credit sale splits the total into count equal monthly
// installments; the split is rounded down to cents and the remainder lands on
// the last installment, so the amounts always sum to the exact total and no
// installment ever goes negative. Due date i is
// the origin advanced i months with the day clamped to dueDay or the last day
// of that month, whichever comes first.
func BuildInstallments(total decimal.Decimal, saleType string, count, dueDay int, origin time.Time) ([]models.Installment, error) {
	origin = utils.BeginningOfDay(origin)

	if saleType == models.SaleTypeCash {
		return []models.Installment{{
			Amount:     total,
			PaidAmount: total,
			DueDate:    origin,
			Status:     models.StatusPaid,
		}}, nil
	}

	if count < 1 || count > MaxInstallments {
		return nil, fmt.Errorf("installment count must be between 1 and %d, got %d", MaxInstallments, count)
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, fmt.Errorf("due day must be between 1 and 31, got %d", dueDay)
	}

	each := total.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	last := total.Sub(each.Mul(decimal.NewFromInt(int64(count - 1))))

	installments := make([]models.Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := each
		if i == count {
			amount = last
		}
		installments = append(installments, models.Installment{
			Amount:     amount,
			PaidAmount: decimal.Zero,
			DueDate:    utils.AddMonthsClamped(origin, i, dueDay),
			Status:     models.StatusPending,
		})
	}
	return installments, nil
}

// SaleStatusFor recomputes a sale's status from its installments: PAID when
// every installment is paid, PARTIAL when some money has come in but not all,
// PENDING otherwise. Must be applied in the same transaction as any
// installment mutation.
func SaleStatusFor(installments []models.Installment) models.PaymentStatus {
	if len(installments) == 0 {
		return models.StatusPending
	}
	allPaid := true
	anyPaid := false
	for _, inst := range installments {
		if inst.Status == models.StatusPaid {
			anyPaid = true
		} else {
			allPaid = false
			if inst.PaidAmount.IsPositive() {
				anyPaid = true
			}
		}
	}
	switch {
	case allPaid:
		return models.StatusPaid
	case anyPaid:
		return models.StatusPartial
	default:
		return models.StatusPending
	}
}

// TotalReceivable sums, across all sales, the uncollected fraction of each
// sale's installments weighted by that sale's net (post-fee) amount. A fully
// paid sale contributes zero; a half-paid sale contributes half its net.
func TotalReceivable(sales []models.Sale) decimal.Decimal {
	receivable := decimal.Zero
	for _, sale := range sales {
		scheduled := decimal.Zero
		paid := decimal.Zero
		for _, inst := range sale.Installments {
			scheduled = scheduled.Add(inst.Amount)
			paid = paid.Add(inst.PaidAmount)
		}
		if !scheduled.IsPositive() {
			continue
		}
		unpaidRatio := scheduled.Sub(paid).Div(scheduled)
		receivable = receivable.Add(sale.NetAmount.Mul(unpaidRatio))
	}
	return receivable.Round(2)
}

// MonthFinancials aggregates the sales of one calendar month.
type MonthFinancials struct {
	GrossRevenue     decimal.Decimal `json:"grossRevenue"`
	Discounts        decimal.Decimal `json:"discounts"`
	CardFees         decimal.Decimal `json:"cardFees"`
	NetRevenue       decimal.Decimal `json:"netRevenue"`
	TotalCostOfGoods decimal.Decimal `json:"totalCostOfGoods"`
}

// SummarizeMonth folds every sale dated in (month, year) into a
// MonthFinancials. A month without sales yields all-zero fields.
func SummarizeMonth(sales []models.Sale, month time.Month, year int) MonthFinancials {
	f := MonthFinancials{
		GrossRevenue:     decimal.Zero,
		Discounts:        decimal.Zero,
		CardFees:         decimal.Zero,
		NetRevenue:       decimal.Zero,
		TotalCostOfGoods: decimal.Zero,
	}
	for _, sale := range sales {
		if sale.SaleDate.Month() != month || sale.SaleDate.Year() != year {
			continue
		}
		f.GrossRevenue = f.GrossRevenue.Add(sale.BaseAmount)
		f.Discounts = f.Discounts.Add(sale.Discount)
		f.CardFees = f.CardFees.Add(sale.CardFeeAmount)
		f.NetRevenue = f.NetRevenue.Add(sale.NetAmount)
		f.TotalCostOfGoods = f.TotalCostOfGoods.Add(sale.TotalCost)
	}
	return f
}

// TotalFixedExpenses sums the flat monthly run-rate. Expenses are not
// period-scoped: the same total applies to every month queried.
func TotalFixedExpenses(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ProfitFor derives product profit (net revenue minus cost of goods) and real
// profit (product profit minus the fixed expense run-rate) for one month.
func ProfitFor(f MonthFinancials, fixedExpenses decimal.Decimal) (productProfit, realProfit decimal.Decimal) {
	productProfit = f.NetRevenue.Sub(f.TotalCostOfGoods)
	realProfit = productProfit.Sub(fixedExpenses)
	return productProfit, realProfit
}

// CustomerBalance is the standing of one customer across all their sales.
type CustomerBalance struct {
	TotalPurchased decimal.Decimal `json:"totalPurchased"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	Debt           decimal.Decimal `json:"debt"`
}

// BalanceFor sums purchases and installment payments over the given sales.
// Callers pass a single customer's sales for a per-customer balance, or every
// sale (walk-ins included) for the global totals.
func BalanceFor(sales []models.Sale) CustomerBalance {
	b := CustomerBalance{
		TotalPurchased: decimal.Zero,
		TotalPaid:      decimal.Zero,
		Debt:           decimal.Zero,
	}
	for _, sale := range sales {
		b.TotalPurchased = b.TotalPurchased.Add(sale.TotalAmount)
		for _, inst := range sale.Installments {
			b.TotalPaid = b.TotalPaid.Add(inst.PaidAmount)
		}
	}
	b.Debt = b.TotalPurchased.Sub(b.TotalPaid)
	return b
}

// OverdueSaleCount counts sales carrying at least one unpaid installment whose
// due date is strictly before now.
func OverdueSaleCount(sales []models.Sale, now time.Time) int {
	count := 0
	for _, sale := range sales {
		for _, inst := range sale.Installments {
			if inst.Status != models.StatusPaid && inst.DueDate.Before(now) {
				count++
				break
			}
		}
	}
	return count
}

// StockCapital values the current inventory at sale price.
func StockCapital(products []models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return total
}
