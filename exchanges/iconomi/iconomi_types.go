package iconomi

import (
	"github.com/shopspring/decimal"
)

// BalanceResponse holds the account balance split into plain assets and
// managed strategies. Currency names the valuation currency the exchange
// claims the value fields are denominated in.
type BalanceResponse struct {
	Currency  string         `json:"currency"`
	AssetList []BalanceEntry `json:"assetList"`
	DaaList   []BalanceEntry `json:"daaList"`
}

// BalanceEntry is one asset or strategy position. Value as reported by the
// exchange is not trusted; holdings are revalued through the price oracle.
type BalanceEntry struct {
	Ticker  string          `json:"ticker"`
	Balance decimal.Decimal `json:"balance"`
	Value   decimal.Decimal `json:"value"`
}

// ActivityRecord is one raw entry of the account activity feed. Only the
// buy_asset and sell_asset types describe trades; deposits, withdrawals and
// strategy rebalances share the same shape.
type ActivityRecord struct {
	Type          string          `json:"type"`
	Timestamp     int64           `json:"timestamp"`
	SourceTicker  string          `json:"source_ticker"`
	SourceAmount  decimal.Decimal `json:"source_amount"`
	TargetTicker  string          `json:"target_ticker"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	FeeTicker     string          `json:"fee_ticker"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	TransactionID string          `json:"transactionId"`
}

// AssetInfo is one entry of the public asset listing
type AssetInfo struct {
	Ticker    string `json:"ticker"`
	Supported bool   `json:"supported"`
}
