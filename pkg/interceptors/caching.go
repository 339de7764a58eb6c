package interceptors

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/transferia/grpcmw/pkg/client"
	"github.com/transferia/grpcmw/pkg/util"
	"go.ytsaurus.tech/library/go/core/log"
	"go.ytsaurus.tech/library/go/core/xerrors"
)

// Caching is a client interceptor that memoizes unary responses keyed on the
// method plus a canonical encoding of the request content. A hit
// short-circuits the continuation entirely, so nothing reaches the
// transport. Streaming shapes pass through: the client API pushes request
// messages after the call is already in flight, so there is no point at
// which the full request sequence could be materialized into a key before
// invoking the continuation.
//
// Responses are stored and replayed as owned deep copies (see
// client.CloneMessage), so callers never share mutable state with the cache
// or with each other. The cache is unbounded and never invalidated; meant
// for idempotent, content-addressed lookups.
type Caching struct {
	cache  *util.ConcurrentMap[string, any]
	logger log.Logger
}

var _ client.Interceptor = (*Caching)(nil)

func NewCaching(logger log.Logger) *Caching {
	return &Caching{
		cache:  util.NewConcurrentMap[string, any](),
		logger: logger,
	}
}

func (c *Caching) Intercept(ctx context.Context, call *client.Call, req client.Request, next client.Continuation) (client.Response, error) {
	if call.RequestStreaming || call.ResponseStreaming {
		c.logger.Debug("streaming call is not cacheable", log.String("method", call.Details.Method))
		return next(ctx, call.Details, req)
	}
	key, err := cacheKey(call.Details.Method, req.Message())
	if err != nil {
		c.logger.Warn("unable to compute cache key", log.String("method", call.Details.Method), log.Error(err))
		return next(ctx, call.Details, req)
	}
	if cached, ok := c.cache.Get(key); ok {
		// each hit gets its own copy, so callers never share the entry
		clone, err := client.CloneMessage(cached)
		if err != nil {
			c.logger.Warn("unable to copy cached response", log.String("method", call.Details.Method), log.Error(err))
		} else {
			return client.SingleResponse(clone), nil
		}
	}
	resp, err := next(ctx, call.Details, req)
	if err != nil {
		return client.Response{}, err
	}
	clone, err := client.CloneMessage(resp.Message())
	if err != nil {
		c.logger.Warn("unable to store response in cache", log.String("method", call.Details.Method), log.Error(err))
		return resp, nil
	}
	c.cache.Set(key, clone)
	return resp, nil
}

func cacheKey(method string, msg any) (string, error) {
	canonical, err := json.Marshal(msg)
	if err != nil {
		return "", xerrors.Errorf("unable to marshal request: %w", err)
	}
	return method + "|" + string(canonical), nil
}
