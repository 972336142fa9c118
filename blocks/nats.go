package blocks

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/types"
)

// NATSConn is the part of *nats.Conn the messaging blocks use.
type NATSConn interface {
	Publish(subject string, data []byte) error
	ChanSubscribe(subject string, ch chan *nats.Msg) (*nats.Subscription, error)
	Flush() error
	Close()
}

// NATSConnector dials a NATS server.
type NATSConnector func(url string) (NATSConn, error)

// DefaultNATSConnector dials url with a bounded reconnect policy.
func DefaultNATSConnector(url string) (NATSConn, error) {
	nc, err := nats.Connect(url,
		nats.Name("blockflow"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func (e *env) natsServer(url string) string {
	if url != "" {
		return url
	}
	if e.natsURL != "" {
		return e.natsURL
	}
	return nats.DefaultURL
}

// =============================================================================
// nats_publish
// =============================================================================

type natsPublishBlock struct {
	connect NATSConnector
	url     string
	subject string
	logger  *zap.Logger
}

func (e *env) newNATSPublish(cfg NATSPublishConfig) (types.Block, error) {
	if cfg.Subject == "" {
		return nil, types.NewError(types.ErrBuild, "nats_publish requires a subject")
	}
	return &natsPublishBlock{
		connect: e.natsConnect,
		url:     e.natsServer(cfg.URL),
		subject: cfg.Subject,
		logger:  e.logger.With(zap.String("block", TypeNATSPublish)),
	}, nil
}

// Execute publishes the input text and passes the input on.
func (b *natsPublishBlock) Execute(_ context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	conn, err := b.connect(b.url)
	if err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "nats_publish: connect %s", b.url).WithCause(err).WithRetryable(true)
	}
	defer conn.Close()

	if err := conn.Publish(b.subject, []byte(in.Text())); err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "nats_publish: publish to %s", b.subject).WithCause(err)
	}
	if err := conn.Flush(); err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "nats_publish: flush %s", b.subject).WithCause(err)
	}
	b.logger.Debug("published", zap.String("subject", b.subject))
	return types.Once(passThrough(in)), nil
}

// =============================================================================
// nats_subscribe
// =============================================================================

type natsSubscribeBlock struct {
	connect NATSConnector
	url     string
	subject string
}

func (e *env) newNATSSubscribe(cfg NATSSubscribeConfig) (types.Block, error) {
	if cfg.Subject == "" {
		return nil, types.NewError(types.ErrBuild, "nats_subscribe requires a subject")
	}
	return &natsSubscribeBlock{
		connect: e.natsConnect,
		url:     e.natsServer(cfg.URL),
		subject: cfg.Subject,
	}, nil
}

// Execute subscribes and emits each message payload as a String. The
// subscription lives until ctx ends.
func (b *natsSubscribeBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	conn, err := b.connect(b.url)
	if err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "nats_subscribe: connect %s", b.url).WithCause(err)
	}
	msgs := make(chan *nats.Msg, 64)
	sub, err := conn.ChanSubscribe(b.subject, msgs)
	if err != nil {
		conn.Close()
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "nats_subscribe: subscribe %s", b.subject).WithCause(err)
	}

	ch := make(chan types.BlockOutput)
	go func() {
		defer close(ch)
		defer conn.Close()
		if sub != nil {
			defer func() { _ = sub.Unsubscribe() }()
		}
		for {
			var (
				msg *nats.Msg
				ok  bool
			)
			select {
			case <-ctx.Done():
				return
			case msg, ok = <-msgs:
				if !ok {
					return
				}
			}
			if !emit(ctx, ch, types.StringOutput(string(msg.Data))) {
				return
			}
		}
	}()
	return types.Recurring(ch), nil
}
