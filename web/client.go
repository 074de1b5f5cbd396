package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/skillian/errors"
	"github.com/skillian/logging"
)

const (
	// TokenPrefix is the string prefixed to the API token within the
	// Authorization header of every request.
	TokenPrefix = "QBANK-TOKEN "

	// RequestIDHeader carries a unique ID per round trip so that requests
	// can be found in the server's logs.
	RequestIDHeader = "X-Request-Id"

	// DefaultTimeout is the HTTP transport's default request timeout.
	DefaultTimeout = 60 * time.Second
)

// Transport performs a single round trip to the QBank API.
type Transport interface {
	// RoundTrip calls the remote function with the given body and returns
	// the raw response record.  Every error it returns is a
	// *ConnectionError.
	RoundTrip(ctx context.Context, function string, body interface{}) (json.RawMessage, error)
}

// HTTPTransport is a Transport that POSTs JSON bodies to
// <endpoint>/<function>.
type HTTPTransport struct {
	// httpClient is the resty.Client used to actually make the requests.
	httpClient *resty.Client

	// Endpoint holds the URL that prefixes every function name.
	Endpoint url.URL

	// token is the Authorization header included in all requests.  It is
	// empty if no token was given.
	token string
}

// TransportOption configures an HTTPTransport.
type TransportOption func(t *HTTPTransport) error

// WithToken sets the API token sent with every request.  Obtaining the
// token is up to the caller.
func WithToken(token string) TransportOption {
	return func(t *HTTPTransport) error {
		if _, err := stringNotEmpty(token, "token"); err != nil {
			return err
		}
		t.token = TokenPrefix + token
		return nil
	}
}

// WithTimeout sets the timeout of each round trip.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) error {
		if d <= 0 {
			return errors.Errorf("timeout must be positive, not %v", d)
		}
		t.httpClient.SetTimeout(d)
		return nil
	}
}

// NewHTTPTransport creates a transport for the given endpoint URL string.
func NewHTTPTransport(endpoint string, options ...TransportOption) (*HTTPTransport, error) {
	if _, err := stringNotEmpty(endpoint, "endpoint"); err != nil {
		return nil, err
	}
	endpointURL, err := parseURL(endpoint)
	if err != nil {
		return nil, err
	}
	t := &HTTPTransport{
		httpClient: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("Accept", "application/json"),
		Endpoint: *endpointURL,
	}
	for _, o := range options {
		if err = o(t); err != nil {
			return nil, errors.ErrorfWithCause(
				err,
				"error applying option: %v (type: %T): %v",
				o, o, err)
		}
	}
	return t, nil
}

// functionURL gets the absolute URL of a remote function.
func (t *HTTPTransport) functionURL(function string) string {
	u := t.Endpoint
	u.Path = path.Join(u.Path, function)
	return u.String()
}

// RoundTrip implements Transport.
func (t *HTTPTransport) RoundTrip(ctx context.Context, function string, body interface{}) (json.RawMessage, error) {
	if _, err := stringNotEmpty(function, "function"); err != nil {
		return nil, t.connErr(function, err)
	}
	uri := t.functionURL(function)
	requestID := uuid.New().String()
	req := t.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(RequestIDHeader, requestID).
		SetBody(body)
	if t.token != "" {
		req.SetHeader("Authorization", t.token)
	}
	if logger.Level() <= logging.VerboseLevel {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, t.connErr(function, errors.ErrorfWithCause(
				err, "failed to marshal body %#v to JSON: %v", body, err))
		}
		logger.Log2(
			logging.VerboseLevel,
			"request %v:\n\n%v",
			requestID, truncate(uri+"\n"+string(bodyBytes), 1024))
	}
	res, err := req.Post(uri)
	if err != nil {
		return nil, t.connErr(function, errors.ErrorfWithCause(
			err,
			"failed to complete request for %v: %v",
			uri, err))
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, t.connErr(function, statusError{
			code: res.StatusCode(),
			msg:  res.Status(),
		})
	}
	raw := res.Body()
	if !json.Valid(raw) {
		return nil, t.connErr(function, errors.Errorf(
			"response is not JSON: %q",
			truncate(strings.TrimSpace(string(raw)), 64)))
	}
	return json.RawMessage(raw), nil
}

func (t *HTTPTransport) connErr(function string, err error) error {
	cerr := &ConnectionError{Function: function, Err: err}
	logger.Error("%v", cerr)
	return cerr
}

// statusError is the cause of a ConnectionError when the server responds
// with a non-2xx HTTP status.
type statusError struct {
	code int
	msg  string
}

func (err statusError) Error() string {
	return fmt.Sprintf(
		"status %d: %v", err.code, err.msg)
}
