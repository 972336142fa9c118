package blocks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/blockflow/types"
)

// frameServer writes frames to every client and then closes normally.
func frameServer(t *testing.T, frames ...string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		for _, f := range frames {
			if err := conn.Write(r.Context(), websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketListen(t *testing.T) {
	url := frameServer(t, "a", "b", "c")
	block := build(t, WebSocketListenConfig{URL: url})

	res, err := block.Execute(context.Background(), types.EmptyInput())
	require.NoError(t, err)
	require.Equal(t, types.ResultRecurring, res.Kind)

	outs := drain(t, res.Stream, 3*time.Second)
	assert.Equal(t, []types.BlockOutput{
		types.TextOutput("a"), types.TextOutput("b"), types.TextOutput("c"),
	}, outs)
}

func TestWebSocketListen_StopsOnCancel(t *testing.T) {
	url := frameServer(t, "a", "b", "c")
	block := build(t, WebSocketListenConfig{URL: url})

	ctx, cancel := context.WithCancel(context.Background())
	res, err := block.Execute(ctx, types.EmptyInput())
	require.NoError(t, err)
	assert.Equal(t, []types.BlockOutput{types.TextOutput("a")}, take(t, res.Stream, 1, 3*time.Second))

	cancel()
	drain(t, res.Stream, 3*time.Second)
}

func TestWebSocketListen_DialFailure(t *testing.T) {
	block := build(t, WebSocketListenConfig{URL: "ws://127.0.0.1:1/none"})

	_, err := block.Execute(context.Background(), types.EmptyInput())
	require.Error(t, err)
	assert.Equal(t, types.ErrIO, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestWebSocketListen_RequiresURL(t *testing.T) {
	_, err := buildErr(t, WebSocketListenConfig{})
	require.Error(t, err)
	assert.True(t, types.IsBuildError(err))
}
