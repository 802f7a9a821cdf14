// Package tradingutils provides price and fee arithmetic on the tick grid.
package tradingutils

import (
	"github.com/shopspring/decimal"
)

// AlignToTick rounds a price down to the tick grid.
func AlignToTick(price, tick int64) int64 {
	return price / tick * tick
}

// AlignUpToTick rounds a price up to the tick grid.
func AlignUpToTick(price, tick int64) int64 {
	return (price + tick - 1) / tick * tick
}

// Notional returns price times volume as a decimal.
func Notional(price, volume int64) decimal.Decimal {
	return decimal.NewFromInt(price * volume)
}

// Fee returns the fee on a fill in hundredths of the account currency,
// negative when the rate is a rebate.
func Fee(rate decimal.Decimal, price, volume int64) int64 {
	return Notional(price, volume).Mul(rate).Shift(2).Round(0).IntPart()
}

// NetProfit computes the profit of a round trip after fees on both legs.
func NetProfit(buyPrice, sellPrice, volume int64, buyRate, sellRate decimal.Decimal) decimal.Decimal {
	gross := decimal.NewFromInt((sellPrice - buyPrice) * volume)
	buyFee := Notional(buyPrice, volume).Mul(buyRate)
	sellFee := Notional(sellPrice, volume).Mul(sellRate)
	return gross.Sub(buyFee).Sub(sellFee)
}
