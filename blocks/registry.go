package blocks

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/internal/cache"
	"github.com/BaSui01/blockflow/internal/database"
	"github.com/BaSui01/blockflow/internal/tlsutil"
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// Option configures the dependencies shared by the built-in blocks.
type Option func(*env)

type env struct {
	logger      *zap.Logger
	httpClient  *http.Client
	cache       *cache.Manager
	db          *database.PoolManager
	natsConnect NATSConnector
	natsURL     string
}

// WithHTTPClient sets the client used by http_request.
func WithHTTPClient(c *http.Client) Option {
	return func(e *env) { e.httpClient = c }
}

// WithCache enables cache_get and cache_set.
func WithCache(m *cache.Manager) Option {
	return func(e *env) { e.cache = m }
}

// WithDatabase enables sql_query.
func WithDatabase(pm *database.PoolManager) Option {
	return func(e *env) { e.db = pm }
}

// WithNATSConnector replaces how the messaging blocks dial NATS.
func WithNATSConnector(c NATSConnector) Option {
	return func(e *env) { e.natsConnect = c }
}

// WithNATSURL sets the server used when a messaging block has no url.
func WithNATSURL(url string) Option {
	return func(e *env) { e.natsURL = url }
}

// RegisterBuiltins adds every built-in block type to reg. Earlier
// registrations under the same ids are replaced.
func RegisterBuiltins(reg *workflow.Registry, logger *zap.Logger, opts ...Option) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &env{
		logger:      logger.With(zap.String("component", "blocks")),
		httpClient:  tlsutil.SecureHTTPClient(tlsutil.DefaultHTTPTimeout),
		natsConnect: DefaultNATSConnector,
	}
	for _, opt := range opts {
		opt(e)
	}

	reg.MustRegister(TypeCustomTransform, typed(newCustomTransform))
	reg.MustRegister(TypeEcho, typed(newEcho))
	reg.MustRegister(TypeMerge, typed(newMerge))
	reg.MustRegister(TypeSplit, typed(newSplit))
	reg.MustRegister(TypeSplitByKeys, typed(newSplitByKeys))
	reg.MustRegister(TypeSplitLines, typed(newSplitLines))
	reg.MustRegister(TypeCombine, typed(newCombine))
	reg.MustRegister(TypeSelectFirst, typed(newSelectFirst))
	reg.MustRegister(TypeFilter, typed(newFilter))
	reg.MustRegister(TypeConditional, typed(newConditional))
	reg.MustRegister(TypeDelay, typed(newDelay))
	reg.MustRegister(TypeTemplate, typed(newTemplate))
	reg.MustRegister(TypeFileRead, typed(newFileRead))
	reg.MustRegister(TypeFileWrite, typed(newFileWrite))
	reg.MustRegister(TypeListDirectory, typed(newListDirectory))
	reg.MustRegister(TypeCron, typed(e.newCron))
	reg.MustRegister(TypeIntervalTrigger, typed(e.newIntervalTrigger))
	reg.MustRegister(TypeHTTPRequest, typed(e.newHTTPRequest))
	reg.MustRegister(TypeJSONValidate, typed(newJSONValidate))
	reg.MustRegister(TypeCacheGet, typed(e.newCacheGet))
	reg.MustRegister(TypeCacheSet, typed(e.newCacheSet))
	reg.MustRegister(TypeSQLQuery, typed(e.newSQLQuery))
	reg.MustRegister(TypeNATSPublish, typed(e.newNATSPublish))
	reg.MustRegister(TypeNATSSubscribe, typed(e.newNATSSubscribe))
	reg.MustRegister(TypeWebSocketListen, typed(e.newWebSocketListen))
	reg.MustRegister(TypeJWTSign, typed(newJWTSign))
	reg.MustRegister(TypeJWTVerify, typed(newJWTVerify))
}

// DefaultRegistry returns a registry holding every built-in block.
func DefaultRegistry(logger *zap.Logger, opts ...Option) *workflow.Registry {
	reg := workflow.NewRegistry(logger)
	RegisterBuiltins(reg, logger, opts...)
	return reg
}

// typed adapts a constructor taking a decoded payload into a factory.
func typed[P any](build func(P) (types.Block, error)) workflow.Factory {
	return func(cfg workflow.BlockConfig) (types.Block, error) {
		var p P
		if err := cfg.DecodePayload(&p); err != nil {
			return nil, err
		}
		return build(p)
	}
}
