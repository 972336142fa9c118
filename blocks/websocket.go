package blocks

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/types"
)

type webSocketListenBlock struct {
	url    string
	logger *zap.Logger
}

func (e *env) newWebSocketListen(cfg WebSocketListenConfig) (types.Block, error) {
	if cfg.URL == "" {
		return nil, types.NewError(types.ErrBuild, "websocket_listen requires a url")
	}
	return &webSocketListenBlock{
		url:    cfg.URL,
		logger: e.logger.With(zap.String("block", TypeWebSocketListen)),
	}, nil
}

// Execute dials the server and emits each received frame as Text. The
// producer stops when the peer closes or ctx ends; the engine reports a peer
// close as a disconnected channel.
func (b *webSocketListenBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}
	conn, _, err := websocket.Dial(ctx, b.url, nil)
	if err != nil {
		return types.ExecutionResult{}, types.Errorf(types.ErrIO, "websocket_listen: dial %s", b.url).WithCause(err).WithRetryable(true)
	}

	ch := make(chan types.BlockOutput)
	go func() {
		defer close(ch)
		defer conn.CloseNow()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
					b.logger.Debug("websocket read ended", zap.String("url", b.url), zap.Error(err))
				}
				return
			}
			if !emit(ctx, ch, types.TextOutput(string(data))) {
				_ = conn.Close(websocket.StatusNormalClosure, "run finished")
				return
			}
		}
	}()
	return types.Recurring(ch), nil
}
