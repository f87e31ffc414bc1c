package iconomi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackfolio/exchangesync/currency"
	exchange "github.com/trackfolio/exchangesync/exchanges"
	"github.com/trackfolio/exchangesync/exchanges/request"
	"github.com/trackfolio/exchangesync/exchanges/signer"
	"github.com/trackfolio/exchangesync/exchanges/trade"
	"github.com/trackfolio/exchangesync/pricing"
)

var _ exchange.Integration = (*Iconomi)(nil)

const (
	testAPIKey    = "apikey"
	testAPISecret = "secretkey"
)

func testClient(t *testing.T, handler http.Handler) *Iconomi {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	i := New(testAPIKey, []byte(testAPISecret))
	i.apiURL = srv.URL
	i.Requester = request.New(i.Name, srv.Client())
	return i
}

func TestSendAuthenticatedHTTPRequestHeaders(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAPIKey, r.Header.Get("ICN-API-KEY"))

		token := r.Header.Get("ICN-TIMESTAMP")
		nonce, err := strconv.ParseInt(token, 10, 64)
		require.NoError(t, err, "timestamp header must be numeric")
		assert.InDelta(t, time.Now().UnixMilli(), nonce, 5000, "freshness token must be a current millisecond epoch")

		// The signature covers the path without the query string
		want, err := signer.Base64SHA512{}.Sign([]byte(testAPISecret), signer.Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  token,
		})
		require.NoError(t, err)
		assert.Equal(t, want, r.Header.Get("ICN-SIGN"), "signature must be byte-exact")

		_, _ = w.Write([]byte(`{"transactions":[]}`))
	}))

	_, err := i.GetActivityPage(context.Background(), 0)
	require.NoError(t, err)
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"currency":"USD","assetList":[],"daaList":[]}`))
	}))
	ok, msg := i.ValidateCredentials(context.Background())
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestValidateCredentialsRejected(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Signature mismatch"}`))
	}))
	ok, msg := i.ValidateCredentials(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "provided API key is invalid", msg)
}

func TestParseAPIError(t *testing.T) {
	t.Parallel()
	err := parseAPIError(http.StatusBadRequest, []byte(`{"message":"pageNumber out of range"}`))
	require.Error(t, err)
	assert.Equal(t, "pageNumber out of range", err.Error())

	assert.NoError(t, parseAPIError(http.StatusBadRequest, []byte(`{"status":400}`)))
}

func TestFetchBalances(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"currency": "EUR",
			"assetList": [
				{"ticker": "BTC", "balance": "0.25", "value": "2500"},
				{"ticker": "ICNGS", "balance": "10", "value": "5"},
				{"ticker": "ETH", "balance": "3", "value": "540"}
			],
			"daaList": [
				{"ticker": "BLX", "balance": "100", "value": "150"}
			]
		}`))
	}))

	oracle := pricing.OracleFunc(func(_ context.Context, c currency.Code) (decimal.Decimal, error) {
		if c == currency.NewCode("BTC") {
			return decimal.RequireFromString("10000"), nil
		}
		return decimal.Zero, assert.AnError
	})

	balances, err := i.FetchBalances(context.Background(), oracle)
	require.NoError(t, err, "non-USD currency and bad entries must not fail the whole call")
	require.Len(t, balances, 1, "unsupported, unpriced and strategy entries are omitted")
	btc := balances[currency.NewCode("BTC")]
	assert.True(t, btc.Total.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, btc.USDValue.Equal(decimal.RequireFromString("2500")), "value must come from the oracle, not the payload")
}

func TestFetchBalancesRemoteError(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	oracle := pricing.OracleFunc(func(context.Context, currency.Code) (decimal.Decimal, error) {
		return decimal.NewFromInt(1), nil
	})
	balances, err := i.FetchBalances(context.Background(), oracle)
	require.ErrorIs(t, err, request.ErrRemote)
	assert.Nil(t, balances)
}

const testActivityPageZero = `{
	"transactions": [
		{
			"type": "buy_asset",
			"timestamp": 1565944147,
			"source_ticker": "USD",
			"source_amount": "1000",
			"target_ticker": "BTC",
			"target_amount": "0.1",
			"fee_ticker": "USD",
			"fee_amount": "2.5",
			"transactionId": "buy-1"
		},
		{
			"type": "deposit",
			"timestamp": 1565944147,
			"source_ticker": "",
			"source_amount": "0",
			"target_ticker": "USD",
			"target_amount": "1000",
			"transactionId": "dep-1"
		}
	]
}`

const testActivityPageOne = `{
	"transactions": [
		{
			"type": "sell_asset",
			"timestamp": 1367488442,
			"source_ticker": "ETH",
			"source_amount": "2",
			"target_ticker": "USD",
			"target_amount": "360",
			"fee_ticker": "USD",
			"fee_amount": "0.9",
			"transactionId": "sell-1"
		},
		{
			"type": "buy_asset",
			"timestamp": 1565944147,
			"source_ticker": "USD",
			"source_amount": "50",
			"target_ticker": "ICNGS",
			"target_amount": "100",
			"fee_ticker": "USD",
			"fee_amount": "0.1",
			"transactionId": "buy-unsupported"
		},
		{
			"type": "buy_asset",
			"timestamp": 0,
			"source_ticker": "USD",
			"source_amount": "10",
			"target_ticker": "BTC",
			"target_amount": "0.001",
			"fee_ticker": "USD",
			"fee_amount": "0",
			"transactionId": "buy-no-timestamp"
		}
	]
}`

func activityHandler(t *testing.T, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.Equal(t, "/v1/user/activity", r.URL.Path)
		switch r.URL.Query().Get("pageNumber") {
		case "0":
			_, _ = w.Write([]byte(testActivityPageZero))
		case "1":
			_, _ = w.Write([]byte(testActivityPageOne))
		case "2":
			_, _ = w.Write([]byte(`{"transactions":[]}`))
		default:
			t.Errorf("unexpected pageNumber %q", r.URL.Query().Get("pageNumber"))
		}
	})
}

func TestFetchTradeHistory(t *testing.T) {
	t.Parallel()
	var calls int
	i := testClient(t, activityHandler(t, &calls))

	start := time.Unix(1367488442, 0) // inclusive lower bound, equals the sell
	end := time.Unix(1565944147, 0)   // inclusive upper bound, equals the buy

	trades, err := i.FetchTradeHistory(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "pagination must continue until the first empty page")

	require.Len(t, trades, 2, "non-trade, unsupported-asset and malformed records are skipped")

	buy := trades[0]
	assert.Equal(t, "buy-1", buy.ExternalID)
	assert.Equal(t, trade.Buy, buy.Side)
	assert.Equal(t, currency.NewCode("BTC"), buy.Base, "a buy transacts the target asset")
	assert.Equal(t, currency.USD, buy.Quote)
	assert.True(t, buy.Amount.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, buy.Rate.Equal(decimal.RequireFromString("10000")), "rate must be derived native/transacted")
	assert.True(t, buy.Fee.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, currency.USD, buy.FeeAsset)
	assert.Equal(t, trade.Key{Location: "iconomi", ExternalID: "buy-1"}, buy.Key())

	sell := trades[1]
	assert.Equal(t, trade.Sell, sell.Side)
	assert.Equal(t, currency.NewCode("ETH"), sell.Base, "a sell transacts the source asset")
	assert.Equal(t, currency.USD, sell.Quote)
	assert.True(t, sell.Rate.Equal(decimal.RequireFromString("180")))
}

func TestFetchTradeHistoryWindowExcludes(t *testing.T) {
	t.Parallel()
	var calls int
	i := testClient(t, activityHandler(t, &calls))

	trades, err := i.FetchTradeHistory(context.Background(), time.Unix(1565944148, 0), time.Unix(1665944148, 0))
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestFetchTradeHistoryAbortsOnPageError(t *testing.T) {
	t.Parallel()
	var calls int
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("pageNumber") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"internal error"}`))
			return
		}
		_, _ = w.Write([]byte(testActivityPageZero))
	}))

	trades, err := i.FetchTradeHistory(context.Background(), time.Unix(0, 0), time.Now())
	require.ErrorIs(t, err, request.ErrRemote)
	assert.Contains(t, err.Error(), "internal error")
	assert.Nil(t, trades, "partial pages must be discarded on abort")
	assert.Equal(t, 2, calls)
}

func TestTradeFromActivityRoleSwap(t *testing.T) {
	t.Parallel()
	i := New(testAPIKey, []byte(testAPISecret))

	rec := &ActivityRecord{
		Type:          activitySellAsset,
		Timestamp:     1565944147,
		SourceTicker:  "BTC",
		SourceAmount:  decimal.RequireFromString("0.5"),
		TargetTicker:  "USD",
		TargetAmount:  decimal.RequireFromString("4500"),
		FeeTicker:     "USD",
		FeeAmount:     decimal.RequireFromString("9"),
		TransactionID: "tx-1",
	}
	tr, err := i.tradeFromActivity(rec)
	require.NoError(t, err)
	assert.Equal(t, currency.NewCode("BTC"), tr.Base)
	assert.Equal(t, currency.USD, tr.Quote)
	assert.True(t, tr.Rate.Equal(decimal.RequireFromString("9000")))
	assert.Equal(t, time.Unix(1565944147, 0).UTC(), tr.Timestamp)

	rec.Type = "withdraw"
	_, err = i.tradeFromActivity(rec)
	require.ErrorIs(t, err, trade.ErrMalformedRecord)

	rec.Type = activityBuyAsset
	rec.TargetAmount = decimal.Zero
	_, err = i.tradeFromActivity(rec)
	require.ErrorIs(t, err, trade.ErrMalformedRecord, "zero transacted amount must not divide")
}

func TestGetSupportedTickers(t *testing.T) {
	t.Parallel()
	i := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/assets", r.URL.Path)
		assert.Empty(t, r.Header.Get("ICN-SIGN"), "asset listing is a public endpoint")
		_, _ = w.Write([]byte(`[
			{"ticker": "BTC", "supported": true},
			{"ticker": "ETH", "supported": true},
			{"ticker": "XYZ", "supported": false},
			{"ticker": "ICNGS", "supported": true}
		]`))
	}))

	tickers, err := i.GetSupportedTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, tickers)
}
