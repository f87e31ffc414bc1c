package iconomi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/buger/jsonparser"

	"github.com/trackfolio/exchangesync/currency"
	exchange "github.com/trackfolio/exchangesync/exchanges"
	"github.com/trackfolio/exchangesync/exchanges/request"
	"github.com/trackfolio/exchangesync/exchanges/signer"
)

const (
	iconomiAPIURL     = "https://api.iconomi.com"
	iconomiAPIVersion = "/v1/"

	iconomiBalance  = "user/balance"
	iconomiActivity = "user/activity"
	iconomiAssets   = "assets"

	iconomiRateInterval = time.Second
	iconomiRateRequests = 5
)

// iconomiUnsupportedAssets lists tickers the platform reports that carry no
// canonical asset mapping
var iconomiUnsupportedAssets = currency.NewList("ICNGS")

// Iconomi is the overarching type across the ICONOMI integration
type Iconomi struct {
	exchange.Base
	apiURL string
}

// New returns an ICONOMI client with bound credentials
func New(apiKey string, apiSecret []byte) *Iconomi {
	i := &Iconomi{apiURL: iconomiAPIURL}
	i.Name = "iconomi"
	i.Requester = request.New(i.Name,
		request.NewHTTPClient(),
		request.WithLimiter(request.NewRateLimit(iconomiRateInterval, iconomiRateRequests)))
	i.SetCredentials(apiKey, apiSecret)
	return i
}

// GetBalance returns the account balance split into plain assets and
// managed strategies
func (i *Iconomi) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	var resp BalanceResponse
	_, err := i.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, iconomiBalance, nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetActivityPage returns one raw page of the account's activity feed
func (i *Iconomi) GetActivityPage(ctx context.Context, page int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("pageNumber", strconv.FormatInt(page, 10))
	return i.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, iconomiActivity, params, nil)
}

// GetAssets returns the platform's asset listing. The endpoint is public and
// needs no signature.
func (i *Iconomi) GetAssets(ctx context.Context) ([]AssetInfo, error) {
	var resp []AssetInfo
	newRequest := func() (*request.Item, error) {
		return &request.Item{
			Method:         http.MethodGet,
			Path:           i.apiURL + iconomiAPIVersion + iconomiAssets,
			Result:         &resp,
			Verbose:        i.Verbose,
			StatusAccepted: []int{http.StatusOK, http.StatusCreated},
			ErrorParser:    parseAPIError,
		}, nil
	}
	if _, err := i.Requester.SendPayload(ctx, newRequest); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendAuthenticatedHTTPRequest signs and dispatches a request, returning the
// raw response body and optionally unmarshalling it into result. The
// signature covers the path without its query string; the freshness token is
// generated immediately before signing.
func (i *Iconomi) SendAuthenticatedHTTPRequest(ctx context.Context, method, path string, params url.Values, result interface{}) (json.RawMessage, error) {
	creds, err := i.GetCredentials()
	if err != nil {
		return nil, err
	}

	signedPath := iconomiAPIVersion + path
	endpoint := signedPath
	if len(params) != 0 {
		endpoint += "?" + params.Encode()
	}

	newRequest := func() (*request.Item, error) {
		token := i.Requester.GetNonceMilli().String()
		sig, err := signer.Base64SHA512{}.Sign(creds.Secret, signer.Request{
			Method: method,
			Path:   signedPath,
			Token:  token,
		})
		if err != nil {
			return nil, err
		}

		headers := map[string]string{
			"ICN-SIGN":      sig,
			"ICN-TIMESTAMP": token,
			"ICN-API-KEY":   creds.Key,
		}

		return &request.Item{
			Method:         method,
			Path:           i.apiURL + endpoint,
			Headers:        headers,
			Result:         result,
			AuthRequest:    true,
			Verbose:        i.Verbose,
			StatusAccepted: []int{http.StatusOK, http.StatusCreated},
			RequireObject:  true,
			ErrorParser:    parseAPIError,
		}, nil
	}

	return i.Requester.SendPayload(ctx, newRequest)
}

// parseAPIError surfaces the message field ICONOMI embeds in rejected
// responses
func parseAPIError(_ int, body []byte) error {
	msg, err := jsonparser.GetString(body, "message")
	if err != nil {
		return nil
	}
	return &APIError{Message: msg}
}

// APIError is a structured error message returned by the exchange
type APIError struct {
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}
