package bitcoinde

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	exchange "github.com/trackfolio/exchangesync/exchanges"
	"github.com/trackfolio/exchangesync/exchanges/request"
	"github.com/trackfolio/exchangesync/exchanges/signer"
)

const (
	bitcoindeAPIURL     = "https://api.bitcoin.de"
	bitcoindeAPIVersion = "/v4/"

	bitcoindeAccount = "account"
	bitcoindeTrades  = "trades"

	// tradeStateSuccessful is the documented state code of a settled trade;
	// any other state is excluded from trade history
	tradeStateSuccessful = 1

	bitcoindeRateInterval = time.Minute
	bitcoindeRateRequests = 60
)

// Exchange error codes embedded in rejected-status payloads
const (
	apiErrCodeKeyFormatInvalid = 1
	apiErrCodeKeyInvalid       = 3
)

// Trading pairs listed on the marketplace; see the Basic API documentation.
// The table is fixed per construction and never mutated.
var bitcoindeTradingPairs = []string{
	"btceur",
	"bcheur",
	"btgeur",
	"etheur",
	"bsveur",
	"ltceur",
}

// Bitcoinde is the overarching type across the bitcoin.de integration
type Bitcoinde struct {
	exchange.Base
	apiURL string
}

// New returns a bitcoin.de client with bound credentials
func New(apiKey string, apiSecret []byte) *Bitcoinde {
	b := &Bitcoinde{apiURL: bitcoindeAPIURL}
	b.Name = "bitcoinde"
	b.Requester = request.New(b.Name,
		request.NewHTTPClient(),
		request.WithLimiter(request.NewRateLimit(bitcoindeRateInterval, bitcoindeRateRequests)))
	b.SetCredentials(apiKey, apiSecret)
	return b
}

// GetAccountInfo returns account details including marketplace balances
func (b *Bitcoinde) GetAccountInfo(ctx context.Context) (*AccountResponse, error) {
	var resp AccountResponse
	_, err := b.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, bitcoindeAccount, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTradesPage returns one raw page of the account's trades in the
// settled state
func (b *Bitcoinde) GetTradesPage(ctx context.Context, page int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("state", fmt.Sprintf("%d", tradeStateSuccessful))
	params.Set("page", fmt.Sprintf("%d", page))
	return b.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, bitcoindeTrades, params, nil)
}

// SendAuthenticatedHTTPRequest signs and dispatches a request, returning the
// raw response body and optionally unmarshalling it into result. The
// freshness token and signature are generated immediately before dispatch.
func (b *Bitcoinde) SendAuthenticatedHTTPRequest(ctx context.Context, method, path string, params url.Values, result interface{}) (json.RawMessage, error) {
	creds, err := b.GetCredentials()
	if err != nil {
		return nil, err
	}

	endpoint := bitcoindeAPIVersion + path
	if len(params) != 0 {
		endpoint += "?" + params.Encode()
	}
	fullURL := b.apiURL + endpoint

	newRequest := func() (*request.Item, error) {
		token := b.Requester.GetNonceMilli().String()
		sig, err := signer.HexSHA256{APIKey: creds.Key}.Sign(creds.Secret, signer.Request{
			Method:  method,
			FullURL: fullURL,
			Token:   token,
		})
		if err != nil {
			return nil, err
		}

		headers := map[string]string{
			"x-api-key":       creds.Key,
			"x-api-nonce":     token,
			"x-api-signature": sig,
		}

		return &request.Item{
			Method:         method,
			Path:           fullURL,
			Headers:        headers,
			Result:         result,
			AuthRequest:    true,
			Verbose:        b.Verbose,
			StatusAccepted: []int{http.StatusOK, http.StatusUnauthorized},
			RequireObject:  true,
			ErrorParser:    parseAPIError,
		}, nil
	}

	return b.Requester.SendPayload(ctx, newRequest)
}

// parseAPIError surfaces the structured errors array bitcoin.de embeds in
// rejected responses. Key errors carry dedicated codes distinguishing a
// malformed key from an unknown one.
func parseAPIError(_ int, body []byte) error {
	var msgs []string
	var keyErr error
	_, err := jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, cbErr error) {
		if cbErr != nil || keyErr != nil {
			return
		}
		code, codeErr := jsonparser.GetInt(value, "code")
		if codeErr != nil {
			return
		}
		field, _ := jsonparser.GetString(value, "field")
		switch {
		case code == apiErrCodeKeyFormatInvalid && field == "X-API-KEY":
			keyErr = errors.New("provided API key is in invalid format")
		case code == apiErrCodeKeyInvalid:
			keyErr = errors.New("provided API key is invalid")
		default:
			if msg, msgErr := jsonparser.GetString(value, "message"); msgErr == nil {
				msgs = append(msgs, msg)
			} else {
				msgs = append(msgs, string(value))
			}
		}
	}, "errors")
	if err != nil {
		// No structured error list present
		return nil
	}
	if keyErr != nil {
		return keyErr
	}
	if len(msgs) > 0 {
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
