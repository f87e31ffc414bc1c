package bitcoinde

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trackfolio/exchangesync/currency"
	"github.com/trackfolio/exchangesync/exchanges/account"
	"github.com/trackfolio/exchangesync/exchanges/pagination"
	"github.com/trackfolio/exchangesync/exchanges/trade"
	"github.com/trackfolio/exchangesync/log"
	"github.com/trackfolio/exchangesync/pricing"
)

// ValidateCredentials performs one lightweight authenticated call to check
// the bound API keypair is usable
func (b *Bitcoinde) ValidateCredentials(ctx context.Context) (bool, string) {
	if _, err := b.GetAccountInfo(ctx); err != nil {
		b.SetValidated(false)
		return false, err.Error()
	}
	b.SetValidated(true)
	return true, ""
}

// FetchBalances returns the canonical holdings snapshot valued through the
// price oracle. A failed price lookup skips only that entry.
func (b *Bitcoinde) FetchBalances(ctx context.Context, oracle pricing.Oracle) (account.HoldingsSnapshot, error) {
	info, err := b.GetAccountInfo(ctx)
	if err != nil {
		log.Errorf(log.ExchangeSys, "%s request failed. Could not reach bitcoin.de due to %v", b.Name, err)
		return nil, err
	}

	balances := make(account.HoldingsSnapshot, len(info.Data.Balances))
	for ticker, raw := range info.Data.Balances {
		code, err := currency.Resolve(ticker, nil)
		if err != nil {
			log.Warnf(log.ExchangeSys, "%s found unsupported asset %q. Ignoring its balance entry", b.Name, ticker)
			continue
		}
		bal, err := account.Valuate(ctx, code, raw.TotalAmount, oracle)
		if err != nil {
			log.Errorf(log.ExchangeSys,
				"%s error processing balance entry due to inability to query USD price: %v. Skipping balance entry",
				b.Name,
				err)
			continue
		}
		balances[code] = bal
	}
	return balances, nil
}

// FetchTradeHistory returns the settled canonical trades with
// start <= timestamp <= end, bounds inclusive. A dispatcher error on any
// page aborts the whole query.
func (b *Bitcoinde) FetchTradeHistory(ctx context.Context, start, end time.Time) ([]trade.Trade, error) {
	fetcher := &pagination.Fetcher{
		Policy: pagination.Indexed{
			StartPage:   1,
			CurrentKeys: []string{"page", "current"},
			LastKeys:    []string{"page", "last"},
		},
		RecordKeys: []string{"trades"},
		Dispatch:   b.GetTradesPage,
	}

	records, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.ExchangeSys, "%s trade history query returned %d records", b.Name, len(records))

	trades := make([]trade.Trade, 0, len(records))
	for i := range records {
		var rec TradeRecord
		if err := json.Unmarshal(records[i], &rec); err != nil {
			log.Warnf(log.ExchangeSys, "%s unable to decode trade record %s: %v. Skipping", b.Name, records[i], err)
			continue
		}
		if rec.State != tradeStateSuccessful {
			continue
		}
		t, err := b.tradeFromRecord(&rec)
		if err != nil {
			if errors.Is(err, trade.ErrMalformedRecord) || errors.Is(err, currency.ErrUnknownAsset) {
				log.Warnf(log.ExchangeSys, "%s ignoring trade %q: %v", b.Name, rec.TradeID, err)
				continue
			}
			return nil, err
		}
		trades = append(trades, t)
	}
	return trade.FilterWindow(trades, start, end), nil
}

// tradeFromRecord converts one raw trade record into the canonical entity.
// The rate is derived from the amount fields, never read from the payload.
func (b *Bitcoinde) tradeFromRecord(rec *TradeRecord) (trade.Trade, error) {
	ts, err := rec.settledTime()
	if err != nil {
		return trade.Trade{}, err
	}
	side, err := trade.ParseType(rec.Type)
	if err != nil {
		return trade.Trade{}, err
	}
	base, quote, err := pairToAssets(rec.TradingPair)
	if err != nil {
		return trade.Trade{}, err
	}
	rate, err := trade.DeriveRate(rec.VolumeCurrencyToPay, rec.AmountCurrencyToTrade)
	if err != nil {
		return trade.Trade{}, err
	}

	t := trade.Trade{
		Timestamp:  ts,
		Location:   b.Name,
		Base:       base,
		Quote:      quote,
		Side:       side,
		Amount:     rec.AmountCurrencyToTrade,
		Rate:       rate,
		Fee:        rec.FeeCurrencyToPay,
		FeeAsset:   currency.EUR, // marketplace fees are always charged in EUR
		ExternalID: rec.TradeID,
	}
	return t, t.Validate()
}

// settledTime extracts the trade timestamp. Trades predating an exchange
// behaviour change lack successfully_finished_at and carry
// trade_marked_as_paid_at instead.
func (r *TradeRecord) settledTime() (time.Time, error) {
	field := r.SuccessfullyFinishedAt
	if field == "" {
		field = r.TradeMarkedAsPaidAt
	}
	if field == "" {
		return time.Time{}, fmt.Errorf("%w: settlement timestamp missing", trade.ErrMalformedRecord)
	}
	ts, err := time.Parse(time.RFC3339, field)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse timestamp %q: %v", trade.ErrMalformedRecord, field, err)
	}
	return ts, nil
}

// pairToAssets splits a fixed six character pair code into the transacted
// and native assets, e.g. btceur -> BTC, EUR
func pairToAssets(pair string) (base, quote currency.Code, err error) {
	for _, supported := range bitcoindeTradingPairs {
		if pair == supported {
			return currency.NewCode(pair[:3]), currency.NewCode(pair[3:]), nil
		}
	}
	return "", "", fmt.Errorf("%w: trading pair %q", currency.ErrUnknownAsset, pair)
}
