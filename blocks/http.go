package blocks

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/blockflow/retry"
	"github.com/BaSui01/blockflow/types"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

type httpRequestBlock struct {
	cfg     HTTPRequestConfig
	client  *http.Client
	retryer *retry.Retryer
	limiter *rate.Limiter
	logger  *zap.Logger
}

func (e *env) newHTTPRequest(cfg HTTPRequestConfig) (types.Block, error) {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	policy := retry.Exponential(2, 1000, 2.0)
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	logger := e.logger.With(zap.String("block", TypeHTTPRequest))

	b := &httpRequestBlock{
		cfg:     cfg,
		client:  e.httpClient,
		retryer: retry.NewRetryer(policy, logger, retry.WithShouldRetry(types.IsRetryable)),
		logger:  logger,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return b, nil
}

// Execute sends the request. The URL comes from config, else from the input;
// when the URL is configured a textual input becomes the request body.
// Non-2xx responses fail; 5xx and 429 are retried per the retry policy.
func (b *httpRequestBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}

	url, body := b.cfg.URL, b.cfg.Body
	if url == "" {
		u, ok := pathFrom(in, "url")
		if !ok {
			return types.ExecutionResult{}, types.NewError(types.ErrInputMissing, "http_request: no url in config or input")
		}
		url = u
	} else if body == "" && !in.IsEmpty() {
		body = in.Text()
	}

	out, err := retry.DoWithResult(ctx, b.retryer, func(ctx context.Context) (types.BlockOutput, error) {
		return b.do(ctx, url, body)
	})
	if err != nil {
		return types.ExecutionResult{}, err
	}
	return types.Once(out), nil
}

func (b *httpRequestBlock) do(ctx context.Context, url, body string) (types.BlockOutput, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return types.BlockOutput{}, types.NewError(types.ErrBlock, "http_request: rate limit wait").WithCause(err)
		}
	}
	if b.cfg.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, b.cfg.Method, url, reader)
	if err != nil {
		return types.BlockOutput{}, types.Errorf(types.ErrBlock, "http_request: build request for %s", url).WithCause(err)
	}
	for k, v := range b.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		// Transport errors are transient unless the run itself is over.
		return types.BlockOutput{}, types.Errorf(types.ErrBlock, "http_request: %s %s", b.cfg.Method, url).
			WithCause(err).
			WithRetryable(ctx.Err() == nil)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.BlockOutput{}, types.Errorf(types.ErrIO, "http_request: read response from %s", url).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.logger.Debug("request failed", zap.String("url", url), zap.Int("status", resp.StatusCode))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return types.BlockOutput{}, types.Errorf(types.ErrBlock, "http_request: %s %s returned %d", b.cfg.Method, url, resp.StatusCode).
			WithRetryable(retryable)
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return types.JSONOutput(v), nil
		}
	}
	return types.TextOutput(string(data)), nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
