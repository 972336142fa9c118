// =============================================================================
// BlockFlow 命令行入口
// =============================================================================
// 加载工作流定义并执行，结果以 JSON 输出到 stdout
//
// 使用方法:
//
//	blockflow run --workflow flow.yaml                 # 执行工作流
//	blockflow run --workflow flow.json --input hello   # 带初始输入
//	blockflow validate --workflow flow.yaml            # 校验定义
//	blockflow blocks                                   # 列出内置块类型
//	blockflow version                                  # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/blocks"
	"github.com/BaSui01/blockflow/config"
	"github.com/BaSui01/blockflow/internal/logging"
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 退出码
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute 分发子命令，返回进程退出码
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "run":
		return runWorkflow(ctx, args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "blocks":
		return runBlocks(stdout)
	case "version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
}

// =============================================================================
// ▶️ run 命令
// =============================================================================

// runReport 是 run 命令输出的 JSON 结构
type runReport struct {
	RunID           string            `json:"run_id"`
	Node            workflow.NodeID   `json:"node,omitempty"`
	Activations     int               `json:"activations"`
	BudgetExhausted bool              `json:"budget_exhausted"`
	Output          types.BlockOutput `json:"output"`
	Path            []workflow.NodeID `json:"path,omitempty"`
}

func runWorkflow(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	workflowPath := fs.String("workflow", "", "Path to workflow definition (.json, .yaml)")
	input := fs.String("input", "", "Initial Text input for the entry node")
	inputJSON := fs.String("input-json", "", "Initial Json input for the entry node")
	budget := fs.Int("budget", 0, "Iteration budget (0 uses config)")
	tickTimeout := fs.Duration("tick-timeout", 0, "Recurring read timeout (0 uses config)")
	maxConcurrency := fs.Int("max-concurrency", 0, "Max parallel activations per wavefront (0 uses config)")
	showPath := fs.Bool("path", false, "Include the activation path in the output")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *workflowPath == "" {
		fmt.Fprintln(stderr, "run: --workflow is required")
		return exitUsage
	}

	opts, err := runOptions(*input, *inputJSON, *budget, *tickTimeout, *maxConcurrency)
	if err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitError
	}

	logger := logging.Init(cfg.Log)
	defer func() { _ = logger.Sync() }()

	def, err := workflow.LoadDefinitionFile(*workflowPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load workflow: %v\n", err)
		return exitError
	}

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize: %v\n", err)
		return exitError
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Warn("shutdown finished with errors", zap.Error(err))
		}
	}()

	logger.Info("running workflow",
		zap.String("version", Version),
		zap.String("definition_id", def.ID),
		zap.String("file", *workflowPath),
	)

	res, err := app.Executor().Run(ctx, def, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Workflow failed: %v\n", err)
		return exitError
	}

	report := runReport{
		RunID:           res.RunID,
		Node:            res.Node,
		Activations:     res.Activations,
		BudgetExhausted: res.BudgetExhausted,
		Output:          res.Output,
	}
	if *showPath {
		if h, ok := app.History().Get(res.RunID); ok {
			report.Path = h.Path()
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(stderr, "Failed to write result: %v\n", err)
		return exitError
	}
	return exitOK
}

// runOptions 将命令行参数转换为 workflow.RunOption，零值表示沿用配置
func runOptions(input, inputJSON string, budget int, tickTimeout time.Duration, maxConcurrency int) ([]workflow.RunOption, error) {
	var opts []workflow.RunOption
	switch {
	case input != "" && inputJSON != "":
		return nil, fmt.Errorf("--input and --input-json are mutually exclusive")
	case input != "":
		opts = append(opts, workflow.WithInput(types.TextOutput(input)))
	case inputJSON != "":
		var v any
		if err := json.Unmarshal([]byte(inputJSON), &v); err != nil {
			return nil, fmt.Errorf("invalid --input-json: %w", err)
		}
		opts = append(opts, workflow.WithInput(types.JSONOutput(v)))
	}
	if budget < 0 || maxConcurrency < 0 || tickTimeout < 0 {
		return nil, fmt.Errorf("--budget, --tick-timeout and --max-concurrency must not be negative")
	}
	if budget > 0 {
		opts = append(opts, workflow.WithIterationBudget(budget))
	}
	if tickTimeout > 0 {
		opts = append(opts, workflow.WithTickTimeout(tickTimeout))
	}
	if maxConcurrency > 0 {
		opts = append(opts, workflow.WithMaxConcurrency(maxConcurrency))
	}
	return opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	workflowPath := fs.String("workflow", "", "Path to workflow definition (.json, .yaml)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *workflowPath == "" {
		fmt.Fprintln(stderr, "validate: --workflow is required")
		return exitUsage
	}

	def, err := workflow.LoadDefinitionFile(*workflowPath)
	if err == nil {
		err = workflow.ValidateDefinition(def)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Invalid workflow: %v\n", err)
		return exitError
	}

	// 块类型在构建时才解析，这里提前检查是否都已注册
	reg := blocks.DefaultRegistry(nil)
	for _, id := range def.NodeIDs() {
		cfg := def.Nodes[id].Config
		if cfg.ChildWorkflow() != nil {
			continue
		}
		if !reg.Has(cfg.BlockType()) {
			fmt.Fprintf(stderr, "Invalid workflow: node %s uses unknown block type %q\n", id, cfg.BlockType())
			return exitError
		}
	}

	fmt.Fprintf(stdout, "OK: %s (%d nodes, %d edges, %d error edges)\n",
		def.ID, len(def.Nodes), len(def.Edges), len(def.ErrorEdges))
	return exitOK
}

// =============================================================================
// 🧱 blocks 命令
// =============================================================================

func runBlocks(stdout io.Writer) int {
	for _, typeID := range blocks.DefaultRegistry(nil).Types() {
		fmt.Fprintln(stdout, typeID)
	}
	return exitOK
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "BlockFlow %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `BlockFlow - block-based workflow engine

Usage:
  blockflow <command> [options]

Commands:
  run       Execute a workflow definition
  validate  Validate a workflow definition
  blocks    List built-in block types
  version   Show version information
  help      Show this help message

Options for 'run':
  --workflow <path>        Workflow definition (.json, .yaml)
  --config <path>          Configuration file (YAML)
  --input <text>           Initial Text input
  --input-json <json>      Initial Json input
  --budget <n>             Iteration budget
  --tick-timeout <dur>     Recurring read timeout, e.g. 5s
  --max-concurrency <n>    Parallel activations per wavefront
  --path                   Include the activation path

Examples:
  blockflow run --workflow flow.yaml --input hello
  blockflow run --workflow flow.json --config /etc/blockflow/config.yaml
  blockflow validate --workflow flow.yaml
  blockflow blocks`)
}
