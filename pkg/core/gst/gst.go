// Package gst splits GST-inclusive amounts into net and tax components.
// Australian GST is 10%, so an inclusive amount carries amount/11 of tax.
// The splitter is pure arithmetic; which side of an entry the clearing
// line lands on is the caller's business.
package gst

import (
	"github.com/shopspring/decimal"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// Rate is the GST rate applied to taxable supplies.
const Rate = 0.10

var (
	rate    = decimal.NewFromFloat(Rate)
	one     = decimal.NewFromInt(1)
	divisor = one.Add(rate) // 1.1
)

// Split divides a GST-inclusive amount into (net, tax). The tax component
// is rounded to cents first and the net takes the residual, so the two
// always re-add to the original amount exactly.
func Split(inclusive float64) (net, tax float64) {
	amount := decimal.NewFromFloat(inclusive)
	taxDec := amount.Mul(rate).Div(divisor).Round(2)
	netDec := amount.Sub(taxDec)
	tax, _ = taxDec.Float64()
	net, _ = netDec.Float64()
	return net, tax
}

// Lines builds the non-bank side of an entry for the given target account:
// a single line when GST does not apply, or net on the target plus tax on
// the clearing account when it does. amount is the GST-inclusive total.
func Lines(target models.Account, clearingCode string, amount float64) ([]models.SplitLine, error) {
	if amount <= 0 {
		return nil, errs.Validationf("split amount must be positive, got %.2f", amount)
	}
	amount = money.Round2(amount)
	if !target.GSTApplicable {
		return []models.SplitLine{{AccountCode: target.Code, Amount: amount}}, nil
	}
	if !models.ValidAccountCode(clearingCode) {
		return nil, errs.Validationf("GST clearing code %q is not a 3-digit account code", clearingCode)
	}
	net, tax := Split(amount)
	if tax == 0 {
		return []models.SplitLine{{AccountCode: target.Code, Amount: amount}}, nil
	}
	return []models.SplitLine{
		{AccountCode: target.Code, Amount: net},
		{AccountCode: clearingCode, Amount: tax},
	}, nil
}
