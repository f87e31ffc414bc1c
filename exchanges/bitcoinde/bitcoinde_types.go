package bitcoinde

import (
	"github.com/shopspring/decimal"
)

// AccountResponse holds account details returned by the account endpoint
type AccountResponse struct {
	Data struct {
		Balances map[string]AccountBalance `json:"balances"`
	} `json:"data"`
}

// AccountBalance holds the marketplace balance for one currency
type AccountBalance struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	ReservedAmount  decimal.Decimal `json:"reserved_amount"`
}

// TradeRecord is one raw trade as returned by the trades endpoint.
// SuccessfullyFinishedAt is absent on very old historical trades, which
// instead carry TradeMarkedAsPaidAt; both fields are supported indefinitely.
type TradeRecord struct {
	TradeID                string          `json:"trade_id"`
	TradingPair            string          `json:"trading_pair"`
	Type                   string          `json:"type"`
	State                  int             `json:"state"`
	AmountCurrencyToTrade  decimal.Decimal `json:"amount_currency_to_trade"`
	VolumeCurrencyToPay    decimal.Decimal `json:"volume_currency_to_pay"`
	FeeCurrencyToPay       decimal.Decimal `json:"fee_currency_to_pay"`
	SuccessfullyFinishedAt string          `json:"successfully_finished_at"`
	TradeMarkedAsPaidAt    string          `json:"trade_marked_as_paid_at"`
}
