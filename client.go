package webclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/webclient/internal/apierror"
	"github.com/GriffinCanCode/webclient/internal/catalog"
	"github.com/GriffinCanCode/webclient/internal/form"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/webclient/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webclient/internal/queue"
	"github.com/GriffinCanCode/webclient/internal/result"
	"github.com/GriffinCanCode/webclient/internal/retry"
	"github.com/GriffinCanCode/webclient/internal/shared/id"
	"github.com/GriffinCanCode/webclient/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrClientClosed is the cancel reason for calls made or queued after Close.
var ErrClientClosed = errors.New("client closed")

// Client calls Web API methods. It is safe for concurrent use.
type Client struct {
	id     id.ClientID
	token  string
	apiURL string

	executor transport.Executor
	gate     *queue.Gate
	policy   retry.Policy
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	catalog  *catalog.Catalog

	logger  *zap.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer

	mu     sync.Mutex
	closed bool
	async  sync.WaitGroup
}

// New creates a client that authenticates with token. Zero-valued Config
// fields take the values of DefaultConfig.
func New(token string, cfg Config) (*Client, error) {
	def := DefaultConfig()

	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	apiURL, err := normalizeURL(cfg.APIURL)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = def.MaxConcurrency
	}
	gate, err := queue.New(cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = def.Retry
	}
	if cfg.LoggerName == "" {
		cfg.LoggerName = def.LoggerName
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	executor := cfg.Executor
	if executor == nil {
		if cfg.Transport.Timeout == 0 {
			cfg.Transport.Timeout = def.Transport.Timeout
		}
		executor, err = transport.NewResty(cfg.Transport)
		if err != nil {
			return nil, err
		}
	}

	c := &Client{
		id:       id.NewClientID(),
		token:    token,
		apiURL:   apiURL,
		executor: executor,
		gate:     gate,
		policy:   cfg.Retry,
		catalog:  catalog.Default(),
		logger:   logger,
	}

	reg := cfg.Registerer
	if reg != nil {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"client": cfg.LoggerName}, reg)
	}
	c.metrics = monitoring.NewMetrics(reg)
	c.metrics.ObserveQueue(gate.InFlight, gate.Queued)
	gate.OnAdmit = c.metrics.RecordQueueWait

	c.tracer = tracing.New(cfg.LoggerName, logger)
	c.metrics.ObserveDroppedSpans(c.tracer.Dropped)

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.LoggerName, cfg.Breaker, logger)
		c.metrics.ObserveBreaker(func() int { return int(c.breaker.State()) })
	}

	logger.Debug("client created",
		zap.String("client_id", c.id.String()),
		zap.String("api_url", apiURL),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Int("max_attempts", cfg.Retry.MaxAttempts),
		logging.Token("token", token),
	)

	return c, nil
}

func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("API URL must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("API URL has no host: %q", raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}

func newLogger(cfg Config) (*zap.Logger, error) {
	if cfg.Logger != nil {
		return cfg.Logger.Named(cfg.LoggerName), nil
	}

	lcfg := logging.DefaultConfig()
	lcfg.Name = cfg.LoggerName
	l, err := logging.New(lcfg)
	if err != nil {
		return nil, err
	}
	return l.Logger, nil
}

func newBreaker(name string, opts BreakerOptions, logger *zap.Logger) *resilience.Breaker {
	threshold := opts.ConsecutiveFailures
	if threshold == 0 {
		threshold = 10
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return resilience.New(name, resilience.Settings{
		Timeout: timeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, apierror.ErrRequest)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// callRequest is one call, fixed before it is queued.
type callRequest struct {
	id     id.CallID
	method string
	url    string
	body   *form.Body
}

// APICall invokes method with args and waits for the outcome. Exactly one
// of the returned values is non-nil; the error is always an *Error.
//
// args is not modified. A non-empty string args["token"] overrides the
// client's token for this call only.
//
// If ctx ends while the call is queued the call is dropped with Cancelled.
// Once admitted, ctx only bounds the HTTP exchange and retry waits.
func (c *Client) APICall(ctx context.Context, method string, args map[string]any) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, apierror.NewCancelled(ErrClientClosed).WithMethod(method)
	}

	timer := monitoring.NewTimer(c.metrics, method)

	req, err := c.prepare(method, args)
	if err != nil {
		timer.Stop(string(apierror.CodeOf(err)))
		return nil, err
	}

	// The call ID is the trace unless the caller is already tracing.
	if tracing.GetTraceID(ctx) == "" {
		ctx = tracing.WithTraceID(ctx, tracing.TraceID(req.id))
	}
	span, ctx := c.tracer.StartSpan(ctx, method)
	logger := c.logger.With(zap.String("call_id", req.id.String()), zap.String("method", method))
	logger.Debug("call queued",
		zap.String("encoding", req.body.Kind.String()),
		zap.Any("fields", req.body.Redacted()),
		zap.Int("queued", c.gate.Queued()),
	)

	var res *Result
	err = c.gate.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.execute(ctx, req, span, logger)
		return err
	})

	outcome := monitoring.OutcomeOK
	if err != nil {
		if e, ok := apierror.As(err); ok && e.Method == "" {
			err = e.WithMethod(method)
		}
		outcome = string(apierror.CodeOf(err))
		span.SetError(err)
	}
	duration := timer.Stop(outcome)

	span.SetTag("outcome", outcome)
	span.Finish()
	c.tracer.Submit(span)

	logger.Debug("call finished", zap.String("outcome", outcome), zap.Duration("duration", duration))

	return res, err
}

// APICallAsync runs APICall in a new goroutine. The returned channel
// receives exactly one Outcome and is then closed.
func (c *Client) APICallAsync(ctx context.Context, method string, args map[string]any) <-chan Outcome {
	out := make(chan Outcome, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		out <- Outcome{Err: apierror.NewCancelled(ErrClientClosed).WithMethod(method)}
		close(out)
		return out
	}
	c.async.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.async.Done()
		defer close(out)

		res, err := c.APICall(ctx, method, args)
		if err != nil {
			out <- Outcome{Err: err}
			return
		}
		out <- Outcome{Result: res}
	}()

	return out
}

// APICallWithCallback runs APICall in a new goroutine and delivers the
// outcome to cb. Exactly one of err and res is non-nil.
func (c *Client) APICallWithCallback(ctx context.Context, method string, args map[string]any, cb func(err error, res *Result)) {
	outcome := c.APICallAsync(ctx, method, args)
	if cb == nil {
		return
	}
	go func() {
		o := <-outcome
		cb(o.Err, o.Result)
	}()
}

// prepare validates args against the catalog and serializes them with the
// effective token.
func (c *Client) prepare(method string, args map[string]any) (*callRequest, error) {
	if method == "" || strings.ContainsAny(method, "/?# ") {
		return nil, apierror.InvalidArgumentf("invalid method name %q", method).WithMethod(method)
	}

	if d, ok := c.catalog.Lookup(method); ok {
		if missing := d.Missing(args); len(missing) > 0 {
			return nil, apierror.InvalidArgumentf("missing required arguments: %s", strings.Join(missing, ", ")).WithMethod(method)
		}
	}

	merged := maps.Clone(args)
	if merged == nil {
		merged = make(map[string]any, 1)
	}
	if override, ok := merged[form.TokenField].(string); !ok || override == "" {
		if c.token != "" {
			merged[form.TokenField] = c.token
		} else {
			delete(merged, form.TokenField)
		}
	}

	body, err := form.Serialize(merged)
	if err != nil {
		if e, ok := apierror.As(err); ok {
			return nil, e.WithMethod(method)
		}
		return nil, apierror.NewInvalidArguments(err).WithMethod(method)
	}

	return &callRequest{
		id:     id.NewCallID(),
		method: method,
		url:    c.apiURL + method,
		body:   body,
	}, nil
}

// execute runs the retry loop for an admitted call and returns the last
// error unmodified once the policy gives up. Each retry is logged on span.
func (c *Client) execute(ctx context.Context, req *callRequest, span *tracing.Span, logger *zap.Logger) (*Result, error) {
	for attempt := 1; ; attempt++ {
		res, err := c.attempt(ctx, req, attempt)
		if err == nil {
			c.logWarnings(res, logger)
			return res, nil
		}

		if ctx.Err() != nil {
			return nil, err
		}

		decision := c.policy.ShouldRetry(attempt, err)
		if !decision.Retry {
			return nil, err
		}

		code := apierror.CodeOf(err)
		c.metrics.RecordRetry(req.method, string(code))

		fields := []zap.Field{
			zap.Int("attempt", attempt),
			zap.Duration("delay", decision.Delay),
			zap.String("code", string(code)),
			zap.Error(err),
		}
		event := "call failed, retrying"
		if e, ok := apierror.As(err); ok && e.RateLimited() {
			event = "rate limited, retrying"
		}
		logger.Warn(event, fields...)
		span.Log(event, map[string]any{
			"attempt": attempt,
			"delay":   decision.Delay.String(),
			"code":    string(code),
		})

		if !sleep(ctx, decision.Delay) {
			return nil, err
		}
	}
}

// attempt performs one HTTP exchange.
func (c *Client) attempt(ctx context.Context, req *callRequest, n int) (*Result, error) {
	span, ctx := c.tracer.StartSpan(ctx, req.method)
	span.SetTag("attempt", strconv.Itoa(n))
	defer func() {
		span.Finish()
		c.tracer.Submit(span)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			e := apierror.NewRequestError(err).WithMethod(req.method)
			span.SetError(e)
			return nil, e
		}
	}

	header := make(http.Header)
	tracing.InjectTraceContext(ctx, header)

	httpReq := &transport.Request{
		Method: http.MethodPost,
		URL:    req.url,
		Header: header,
		Body:   req.body,
	}

	c.metrics.RecordAttempt(req.method, req.body.Size())

	var resp *transport.Response
	send := func() error {
		r, err := c.executor.Execute(ctx, httpReq)
		if err != nil {
			return apierror.NewRequestError(err).WithMethod(req.method)
		}
		if r == nil {
			return apierror.NewRequestError(io.ErrUnexpectedEOF).WithMethod(req.method)
		}
		resp = r
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(send)
		if resilience.Rejected(err) {
			err = apierror.NewRequestError(err).WithMethod(req.method)
		}
	} else {
		err = send()
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	span.SetStatus(resp.Status)

	res, err := result.Build(req.method, resp)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return res, nil
}

func (c *Client) logWarnings(res *Result, logger *zap.Logger) {
	if warnings := res.Warnings(); len(warnings) > 0 {
		logger.Warn("API returned warnings", zap.Strings("warnings", warnings))
	}
}

// sleep waits d or until ctx ends, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// CancelPending drops every queued call with a Cancelled error wrapping
// reason and returns how many were dropped. Calls already in flight finish
// normally.
func (c *Client) CancelPending(reason error) int {
	n := c.gate.CancelAll(reason)
	if n > 0 {
		c.logger.Warn("cancelled queued calls", zap.Int("count", n), zap.Error(reason))
	}
	return n
}

// Stats is a point-in-time view of a client.
type Stats struct {
	MaxConcurrency int
	InFlight       int
	Queued         int
	Admitted       uint64
	Rejected       uint64

	Calls    int64
	Errors   int64
	Attempts int64
	Retries  int64
	// AverageDuration is the mean end-to-end call time.
	AverageDuration time.Duration

	// Breaker is the circuit state, or "" when the breaker is disabled.
	Breaker string
}

// Stats returns current queue and call counters.
func (c *Client) Stats() Stats {
	q := c.gate.Stats()
	m := c.metrics.Snapshot()

	s := Stats{
		MaxConcurrency:  q.Max,
		InFlight:        q.InFlight,
		Queued:          q.Queued,
		Admitted:        q.Admitted,
		Rejected:        q.Rejected,
		Calls:           m.TotalCalls,
		Errors:          m.TotalErrors,
		Attempts:        m.TotalAttempts,
		Retries:         m.TotalRetries,
		AverageDuration: m.AverageDuration(),
	}
	if c.breaker != nil {
		s.Breaker = c.breaker.State().String()
	}
	return s
}

// MetricsHandler serves the client's Prometheus metrics. When
// Config.Registerer was set, serve that registry instead; this handler then
// answers 404.
func (c *Client) MetricsHandler() http.Handler {
	return c.metrics.Handler()
}

// Close rejects queued calls, waits for asynchronous calls to finish and
// releases idle connections. Calls made after Close fail with Cancelled.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.gate.Close(ErrClientClosed)
	c.async.Wait()
	c.tracer.Close()

	if closer, ok := c.executor.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
