package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/blocks"
	"github.com/BaSui01/blockflow/config"
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

func TestNewApp_Defaults(t *testing.T) {
	app, err := NewApp(context.Background(), config.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(context.Background())) }()

	assert.Nil(t, app.cache)
	assert.Nil(t, app.db)
	assert.Nil(t, app.metricsManager)
	assert.True(t, app.Executor().Registry().Has(blocks.TypeHTTPRequest))
}

func TestNewApp_WithResources(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Database.Enabled = true
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = ":memory:"
	cfg.Database.MaxOpenConns = 1
	cfg.Database.MaxIdleConns = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.Metrics.Namespace = "blockflow_app_test"

	app, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close(context.Background())) }()

	def := workflow.NewBuilder("cache").
		AddNode("set", workflow.NewBlockConfig(blocks.CacheSetConfig{Key: "greeting"})).Done().
		AddNode("out", workflow.NewBlockConfig(blocks.EchoConfig{})).Done().
		AddEdge("set", "out").
		SetEntry("set").
		MustBuild()

	res, err := app.Executor().Run(context.Background(), def, workflow.WithInput(types.TextOutput("hi")))
	require.NoError(t, err)
	assert.Equal(t, workflow.NodeID("out"), res.Node)

	got, err := mr.Get("blockflow:greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)

	resp, err := http.Get("http://" + app.metricsManager.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `blockflow_app_test_workflow_runs_total{kind="root",status="completed"} 1`)

	require.NotNil(t, app.db)
	require.NoError(t, app.db.Ping(context.Background()))

	h, ok := app.History().Get(res.RunID)
	require.True(t, ok)
	assert.Equal(t, []workflow.NodeID{"set", "out"}, h.Path())
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	app, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "connect redis")
}

func TestNewApp_PartialFailureReleasesResources(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Database.Enabled = true
	cfg.Database.Driver = "oracle"

	var app *App
	var err error
	require.NotPanics(t, func() {
		app, err = NewApp(context.Background(), cfg, zaptest.NewLogger(t))
	})
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "connect database")

	// The redis client opened before the failure has been closed.
	require.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestApp_CloseNil(t *testing.T) {
	var app *App
	assert.NoError(t, app.Close(context.Background()))
}
