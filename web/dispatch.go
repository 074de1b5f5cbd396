package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/skillian/errors"
	"golang.org/x/sync/errgroup"
)

// Call describes one call within a batch.
type Call struct {
	// Name identifies the call's result within the batch.  Later calls
	// refer to it through Refs.
	Name string

	// Function is the remote function to call.
	Function string

	// Args are the function's arguments.  They may contain Refs to calls
	// earlier in the same batch.
	Args Args
}

// Client dispatches calls to the QBank API over a Transport.  A Client has
// no per-call state and can be shared.
type Client struct {
	transport Transport

	// chaining is true when the server resolves references between the
	// calls of a batch itself.  Otherwise the batch is simulated.
	chaining bool

	// key identifies the endpoint and token the client was created for.
	// It is empty for clients with a custom Transport.
	key clientPoolKey

	// topts are applied to the transport NewClient creates.
	topts []TransportOption

	// numRequests keeps track of the total number of round trips issued
	// through this client.  It's accessible through the NumRequests
	// function.
	numRequests uint64
}

// ClientOption configures a Client.
type ClientOption func(c *Client)

// WithServerChaining selects whether batches are sent to the server in one
// round trip (the default) or simulated by the client one call at a time.
func WithServerChaining(chaining bool) ClientOption {
	return func(c *Client) {
		c.chaining = chaining
	}
}

// WithTransportOptions configures the HTTPTransport created by NewClient.
// It has no effect on a client created with NewClientWithTransport.
func WithTransportOptions(options ...TransportOption) ClientOption {
	return func(c *Client) {
		c.topts = append(c.topts, options...)
	}
}

// NewClient creates a new client that talks HTTP to the given endpoint URL
// string.  The token may be empty if the endpoint doesn't require one.
func NewClient(endpoint, token string, options ...ClientOption) (*Client, error) {
	c := NewClientWithTransport(nil, options...)
	topts := c.topts
	if token != "" {
		topts = append([]TransportOption{WithToken(token)}, topts...)
	}
	t, err := NewHTTPTransport(endpoint, topts...)
	if err != nil {
		return nil, err
	}
	c.transport = t
	c.topts = nil
	c.key = clientPoolKey{endpoint: endpoint, token: token}
	return c, nil
}

// NewClientWithTransport creates a client using an existing Transport.
func NewClientWithTransport(t Transport, options ...ClientOption) *Client {
	c := &Client{transport: t, chaining: true}
	for _, o := range options {
		o(c)
	}
	return c
}

// NumRequests returns the total number of round trips issued through this
// client, both successful and failed.  A batch sent to the server counts as
// one.
func (c *Client) NumRequests() uint64 {
	return atomic.LoadUint64(&c.numRequests)
}

// Invoke calls a single remote function.  The error is non-nil only when
// the call could not be completed: it is always a *ConnectionError.  Whether
// the server reports success is left to the caller to check in the Result.
func (c *Client) Invoke(ctx context.Context, function string, args Args) (Result, error) {
	if refs := refsIn(args, nil); len(refs) > 0 {
		return Result{}, errors.Errorf(
			"references (first: %v) can only be used within a batch",
			refs[0])
	}
	return c.invoke(ctx, function, args)
}

func (c *Client) invoke(ctx context.Context, function string, args interface{}) (Result, error) {
	raw, err := c.roundTrip(ctx, function, args)
	if err != nil {
		return Result{}, err
	}
	r, err := parseResult(raw)
	if err != nil {
		return Result{}, c.malformed(function, err)
	}
	return r, nil
}

// Call calls a single remote function and translates a reported failure
// into an *ApplicationError.  Connection failures are *ConnectionErrors.
func (c *Client) Call(ctx context.Context, function string, args Args) (Result, error) {
	r, err := c.Invoke(ctx, function, args)
	if err != nil {
		return Result{}, err
	}
	if err = Translate(function, r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Batch executes the calls in order and returns each call's result.  A call
// failing does not keep the others from running; the caller is responsible
// for checking every result it uses.  A call the server skipped has no
// result.  The error is only non-nil if the batch itself could not be
// executed.
func (c *Client) Batch(ctx context.Context, calls ...Call) (BatchResult, error) {
	if err := validateCalls(calls); err != nil {
		return BatchResult{}, err
	}
	if c.chaining {
		return c.chainedBatch(ctx, calls)
	}
	return c.simulatedBatch(ctx, calls)
}

// validateCalls makes sure call names are unique and that every reference
// refers to an earlier call.
func validateCalls(calls []Call) error {
	if len(calls) == 0 {
		return errors.Errorf("a batch needs at least one call")
	}
	seen := make(map[string]struct{}, len(calls))
	for i, call := range calls {
		if _, err := stringNotEmpty(call.Name, "name"); err != nil {
			return errors.ErrorfWithCause(err, "call %d has no name", i)
		}
		if _, err := stringNotEmpty(call.Function, "function"); err != nil {
			return errors.ErrorfWithCause(
				err, "call %q has no function", call.Name)
		}
		if _, ok := seen[call.Name]; ok {
			return errors.Errorf(
				"call name %q used more than once", call.Name)
		}
		for _, ref := range refsIn(call.Args, nil) {
			if _, ok := seen[ref.Call]; !ok {
				return errors.Errorf(
					"call %q refers to %v but %q is not an "+
						"earlier call in the batch",
					call.Name, ref, ref.Call)
			}
		}
		seen[call.Name] = struct{}{}
	}
	return nil
}

// chainedBatch sends all of the calls in a single round trip and lets the
// server resolve the references.
func (c *Client) chainedBatch(ctx context.Context, calls []Call) (BatchResult, error) {
	body := batchRequest{Calls: make([]batchCall, len(calls))}
	for i, call := range calls {
		args := call.Args
		if args == nil {
			args = Args{}
		}
		body.Calls[i] = batchCall{
			Name:      call.Name,
			Function:  call.Function,
			Arguments: args,
		}
	}
	raw, err := c.roundTrip(ctx, FuncBatch, body)
	if err != nil {
		return BatchResult{}, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return BatchResult{}, c.malformed(FuncBatch, errors.Errorf(
			"batch response is not an object: %q",
			truncate(string(trimmed), 64)))
	}
	var res struct {
		Results map[string]json.RawMessage `json:"results"`
	}
	if err = json.Unmarshal(trimmed, &res); err != nil {
		return BatchResult{}, c.malformed(FuncBatch, errors.ErrorfWithCause(
			err, "failed to unmarshal batch response: %v", err))
	}
	if res.Results == nil {
		// The server rejected the batch as a whole.
		if r, err := parseResult(trimmed); err == nil && !r.Success {
			return BatchResult{}, Translate(FuncBatch, r)
		}
		return BatchResult{}, c.malformed(FuncBatch, errors.Errorf(
			"batch response has no results"))
	}
	br := newBatchResult(len(calls))
	for _, call := range calls {
		sub, ok := res.Results[call.Name]
		if !ok {
			// The server may skip the dependents of a failed call.
			logger.Debug1("batch response has no result for call %q", call.Name)
			continue
		}
		r, err := parseResult(sub)
		if err != nil {
			return BatchResult{}, c.malformed(FuncBatch, errors.ErrorfWithCause(
				err, "bad result for call %q: %v", call.Name, err))
		}
		br.set(call.Name, r)
	}
	return br, nil
}

// simulatedBatch executes the calls one round trip at a time for servers
// that cannot chain calls.  Calls are grouped into waves: a call's wave is
// one past the latest wave of the calls it refers to.  Waves run in order
// and the calls within a wave run concurrently.
func (c *Client) simulatedBatch(ctx context.Context, calls []Call) (BatchResult, error) {
	levels := make(map[string]int, len(calls))
	var waves [][]Call
	for _, call := range calls {
		level := 0
		for _, ref := range refsIn(call.Args, nil) {
			if l := levels[ref.Call] + 1; l > level {
				level = l
			}
		}
		levels[call.Name] = level
		for len(waves) <= level {
			waves = append(waves, nil)
		}
		waves[level] = append(waves[level], call)
	}
	var mu sync.Mutex
	results := make(map[string]Result, len(calls))
	resolve := func(ref Ref) (interface{}, bool) {
		mu.Lock()
		r, ok := results[ref.Call]
		mu.Unlock()
		if !ok || !r.Success {
			return nil, false
		}
		field := r.Get(ref.Field)
		if !field.Exists() {
			return nil, false
		}
		return field.Value(), true
	}
	for i, wave := range waves {
		logger.Debug2("batch wave %d: %d call(s)", i, len(wave))
		g, gctx := errgroup.WithContext(ctx)
		for _, call := range wave {
			call := call
			g.Go(func() error {
				r, err := c.simulateCall(gctx, call, resolve)
				if err != nil {
					return err
				}
				mu.Lock()
				results[call.Name] = r
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return BatchResult{}, err
		}
	}
	br := newBatchResult(len(calls))
	for _, call := range calls {
		br.set(call.Name, results[call.Name])
	}
	return br, nil
}

// simulateCall substitutes the references in the call's arguments and
// executes it.  If a reference can't be resolved, the call fails without
// a round trip.
func (c *Client) simulateCall(ctx context.Context, call Call, resolve resolveFunc) (Result, error) {
	args, failed, ok := substitute(call.Args, resolve)
	if !ok {
		logger.Debug2(
			"skipping call %q: reference %v cannot be resolved",
			call.Name, failed)
		return FailureResult(RemoteError{
			Message: fmt.Sprintf(
				"call %q was not executed: %v is unavailable",
				call.Name, failed),
			Code: CodeDependencyFailed,
			Type: TypeDependency,
		}), nil
	}
	return c.invoke(ctx, call.Function, args)
}

// roundTrip sends a request through the transport, counting it and making
// sure every failure comes back as a *ConnectionError.
func (c *Client) roundTrip(ctx context.Context, function string, body interface{}) (json.RawMessage, error) {
	atomic.AddUint64(&c.numRequests, 1)
	raw, err := c.transport.RoundTrip(ctx, function, body)
	if err != nil {
		if IsConnectionError(err) {
			return nil, err
		}
		return nil, c.connErr(function, err)
	}
	return raw, nil
}

func (c *Client) malformed(function string, err error) error {
	return c.connErr(function, errors.ErrorfWithCause(
		err, "malformed response: %v", err))
}

func (c *Client) connErr(function string, err error) error {
	cerr := &ConnectionError{Function: function, Err: err}
	logger.Error("%v", cerr)
	return cerr
}
