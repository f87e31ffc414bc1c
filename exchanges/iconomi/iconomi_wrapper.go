package iconomi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackfolio/exchangesync/currency"
	"github.com/trackfolio/exchangesync/exchanges/account"
	"github.com/trackfolio/exchangesync/exchanges/pagination"
	"github.com/trackfolio/exchangesync/exchanges/trade"
	"github.com/trackfolio/exchangesync/log"
	"github.com/trackfolio/exchangesync/pricing"
)

// Activity types describing trades; every other type is ignored by trade
// history
const (
	activityBuyAsset  = "buy_asset"
	activitySellAsset = "sell_asset"
)

// ValidateCredentials performs one lightweight authenticated call to check
// the bound API keypair is usable. The exchange's rejection payloads are not
// informative, so failures map onto one fixed message.
func (i *Iconomi) ValidateCredentials(ctx context.Context) (bool, string) {
	if _, err := i.GetBalance(ctx); err != nil {
		i.SetValidated(false)
		return false, "provided API key is invalid"
	}
	i.SetValidated(true)
	return true, ""
}

// FetchBalances returns the canonical holdings snapshot valued through the
// price oracle. The exchange's own value field is documented as USD but has
// been observed in EUR, so holdings are always revalued. Strategy positions
// carry no canonical asset and are skipped with a warning.
func (i *Iconomi) FetchBalances(ctx context.Context, oracle pricing.Oracle) (account.HoldingsSnapshot, error) {
	info, err := i.GetBalance(ctx)
	if err != nil {
		log.Errorf(log.ExchangeSys, "%s request failed. Could not reach ICONOMI due to %v", i.Name, err)
		return nil, err
	}

	if info.Currency != currency.USD.String() {
		log.Warnf(log.ExchangeSys,
			"%s reported balance values in %s, not USD. Holdings are revalued through the price oracle regardless",
			i.Name,
			info.Currency)
	}

	balances := make(account.HoldingsSnapshot, len(info.AssetList))
	for _, entry := range info.AssetList {
		code, err := currency.Resolve(entry.Ticker, iconomiUnsupportedAssets)
		if err != nil {
			log.Warnf(log.ExchangeSys, "%s found unsupported asset %q. Ignoring its balance entry", i.Name, entry.Ticker)
			continue
		}
		bal, err := account.Valuate(ctx, code, entry.Balance, oracle)
		if err != nil {
			log.Errorf(log.ExchangeSys,
				"%s error processing balance entry due to inability to query USD price: %v. Skipping balance entry",
				i.Name,
				err)
			continue
		}
		balances[code] = bal
	}

	for _, entry := range info.DaaList {
		log.Warnf(log.ExchangeSys, "%s found unsupported strategy %q. Ignoring its balance entry", i.Name, entry.Ticker)
	}
	return balances, nil
}

// FetchTradeHistory returns the canonical trades with
// start <= timestamp <= end, bounds inclusive. The activity feed carries no
// page-count markers; pagination stops at the first empty page.
func (i *Iconomi) FetchTradeHistory(ctx context.Context, start, end time.Time) ([]trade.Trade, error) {
	fetcher := &pagination.Fetcher{
		Policy:     pagination.EmptySentinel{StartPage: 0},
		RecordKeys: []string{"transactions"},
		Dispatch:   i.GetActivityPage,
	}

	records, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.ExchangeSys, "%s trade history query returned %d records", i.Name, len(records))

	trades := make([]trade.Trade, 0, len(records))
	for idx := range records {
		var rec ActivityRecord
		if err := json.Unmarshal(records[idx], &rec); err != nil {
			log.Warnf(log.ExchangeSys, "%s unable to decode activity record %s: %v. Skipping", i.Name, records[idx], err)
			continue
		}
		if rec.Type != activityBuyAsset && rec.Type != activitySellAsset {
			continue
		}
		t, err := i.tradeFromActivity(&rec)
		if err != nil {
			if errors.Is(err, trade.ErrMalformedRecord) || errors.Is(err, currency.ErrUnknownAsset) {
				log.Warnf(log.ExchangeSys, "%s ignoring transaction %q: %v", i.Name, rec.TransactionID, err)
				continue
			}
			return nil, err
		}
		trades = append(trades, t)
	}
	return trade.FilterWindow(trades, start, end), nil
}

// tradeFromActivity converts one buy_asset or sell_asset activity record into
// the canonical entity. Source and target swap roles with the direction: a
// buy transacts the target asset, a sell the source asset. The rate is
// derived from the amounts, never read from the payload.
func (i *Iconomi) tradeFromActivity(rec *ActivityRecord) (trade.Trade, error) {
	if rec.Timestamp <= 0 {
		return trade.Trade{}, fmt.Errorf("%w: settlement timestamp missing", trade.ErrMalformedRecord)
	}

	var side trade.Type
	var txTicker, nativeTicker string
	var txAmount, nativeAmount decimal.Decimal
	switch rec.Type {
	case activityBuyAsset:
		side = trade.Buy
		txTicker, txAmount = rec.TargetTicker, rec.TargetAmount
		nativeTicker, nativeAmount = rec.SourceTicker, rec.SourceAmount
	case activitySellAsset:
		side = trade.Sell
		txTicker, txAmount = rec.SourceTicker, rec.SourceAmount
		nativeTicker, nativeAmount = rec.TargetTicker, rec.TargetAmount
	default:
		return trade.Trade{}, fmt.Errorf("%w: activity type %q is not a trade", trade.ErrMalformedRecord, rec.Type)
	}

	base, err := currency.Resolve(txTicker, iconomiUnsupportedAssets)
	if err != nil {
		return trade.Trade{}, err
	}
	quote, err := currency.Resolve(nativeTicker, iconomiUnsupportedAssets)
	if err != nil {
		return trade.Trade{}, err
	}
	rate, err := trade.DeriveRate(nativeAmount, txAmount)
	if err != nil {
		return trade.Trade{}, err
	}

	feeAsset := currency.NewCode(rec.FeeTicker)
	t := trade.Trade{
		Timestamp:  time.Unix(rec.Timestamp, 0).UTC(),
		Location:   i.Name,
		Base:       base,
		Quote:      quote,
		Side:       side,
		Amount:     txAmount,
		Rate:       rate,
		Fee:        rec.FeeAmount,
		FeeAsset:   feeAsset,
		ExternalID: rec.TransactionID,
	}
	return t, t.Validate()
}

// GetSupportedTickers returns the tradable tickers of the public asset
// listing, excluding unsupported entries
func (i *Iconomi) GetSupportedTickers(ctx context.Context) ([]string, error) {
	assets, err := i.GetAssets(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(assets))
	for _, info := range assets {
		if !info.Supported {
			continue
		}
		if _, err := currency.Resolve(info.Ticker, iconomiUnsupportedAssets); err != nil {
			continue
		}
		tickers = append(tickers, info.Ticker)
	}
	return tickers, nil
}
