package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/BaSui01/blockflow/testutil/mocks"
	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

// EngineTestContext holds state across the steps of one scenario.
type EngineTestContext struct {
	logger   *zap.Logger
	blocks   map[string]*mocks.MockBlock
	builder  *workflow.Builder
	options  []workflow.RunOption
	history  *workflow.HistoryStore
	observer *mocks.RecordingObserver

	result  *workflow.Result
	lastErr error
}

// NewEngineTestContext creates an empty scenario context.
func NewEngineTestContext() *EngineTestContext {
	return &EngineTestContext{logger: zap.NewNop()}
}

func (c *EngineTestContext) reset() {
	c.blocks = make(map[string]*mocks.MockBlock)
	c.builder = workflow.NewBuilder("scenario")
	c.options = nil
	c.history = workflow.NewHistoryStore()
	c.observer = mocks.NewRecordingObserver()
	c.result = nil
	c.lastErr = nil
}

// RegisterSteps connects Gherkin steps to Go functions.
func (c *EngineTestContext) RegisterSteps(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.reset()
		return ctx, nil
	})

	// Blocks
	ctx.Step(`^a block "([^"]*)" that passes its input through$`, c.aPassThroughBlock)
	ctx.Step(`^a block "([^"]*)" that returns text "([^"]*)"$`, c.aTextBlock)
	ctx.Step(`^a block "([^"]*)" that fails with "([^"]*)"$`, c.aFailingBlock)
	ctx.Step(`^a block "([^"]*)" that emits "([^"]*)" as a stream$`, c.aStreamBlock)

	// Graph
	ctx.Step(`^a node "([^"]*)" using "([^"]*)"$`, c.aNode)
	ctx.Step(`^a node "([^"]*)" using "([^"]*)" with text input "([^"]*)"$`, c.aNodeWithInput)
	ctx.Step(`^an edge from "([^"]*)" to "([^"]*)"$`, c.anEdge)
	ctx.Step(`^an error edge from "([^"]*)" to "([^"]*)"$`, c.anErrorEdge)
	ctx.Step(`^the entry node is "([^"]*)"$`, c.theEntryNodeIs)

	// Options
	ctx.Step(`^the iteration budget is (\d+)$`, c.theIterationBudgetIs)
	ctx.Step(`^the tick timeout is (\d+) milliseconds$`, c.theTickTimeoutIs)

	// Execution
	ctx.Step(`^I run the workflow$`, c.iRunTheWorkflow)
	ctx.Step(`^I run the workflow with text input "([^"]*)"$`, c.iRunTheWorkflowWithTextInput)

	// Outcomes
	ctx.Step(`^the run should succeed$`, c.theRunShouldSucceed)
	ctx.Step(`^the run should fail with code "([^"]*)"$`, c.theRunShouldFailWithCode)
	ctx.Step(`^the output should be text "([^"]*)"$`, c.theOutputShouldBeText)
	ctx.Step(`^the output should be string "([^"]*)"$`, c.theOutputShouldBeString)
	ctx.Step(`^the output should be json '([^']*)'$`, c.theOutputShouldBeJSON)
	ctx.Step(`^the output node should be "([^"]*)"$`, c.theOutputNodeShouldBe)
	ctx.Step(`^the activation count should be (\d+)$`, c.theActivationCountShouldBe)
	ctx.Step(`^the iteration budget should be exhausted$`, c.theBudgetShouldBeExhausted)
	ctx.Step(`^the activation path should be "([^"]*)"$`, c.theActivationPathShouldBe)
	ctx.Step(`^block "([^"]*)" should have been called (\d+) times?$`, c.blockShouldHaveBeenCalled)
	ctx.Step(`^block "([^"]*)" should have received an error containing "([^"]*)"$`, c.blockShouldHaveReceivedError)
	ctx.Step(`^the failure of "([^"]*)" should have been routed$`, c.theFailureShouldHaveBeenRouted)
}

// --- Blocks ---

func (c *EngineTestContext) addBlock(typeID string, b *mocks.MockBlock) error {
	if _, exists := c.blocks[typeID]; exists {
		return fmt.Errorf("block %q already defined", typeID)
	}
	c.blocks[typeID] = b
	return nil
}

func (c *EngineTestContext) aPassThroughBlock(typeID string) error {
	return c.addBlock(typeID, mocks.PassThrough())
}

func (c *EngineTestContext) aTextBlock(typeID, text string) error {
	return c.addBlock(typeID, mocks.Constant(types.TextOutput(text)))
}

func (c *EngineTestContext) aFailingBlock(typeID, message string) error {
	return c.addBlock(typeID, mocks.Failing(types.NewError(types.ErrIO, message)))
}

func (c *EngineTestContext) aStreamBlock(typeID, values string) error {
	var outs []types.BlockOutput
	for _, v := range strings.Split(values, ",") {
		outs = append(outs, types.StringOutput(strings.TrimSpace(v)))
	}
	return c.addBlock(typeID, mocks.NewMockBlock().WithStream(outs...))
}

// --- Graph ---

func (c *EngineTestContext) aNode(id, typeID string) error {
	c.builder.AddNode(workflow.NodeID(id), workflow.CustomConfig(typeID, nil))
	return nil
}

func (c *EngineTestContext) aNodeWithInput(id, typeID, text string) error {
	c.builder.AddNode(workflow.NodeID(id), workflow.CustomConfig(typeID, nil)).WithInput(types.TextOutput(text))
	return nil
}

func (c *EngineTestContext) anEdge(from, to string) error {
	c.builder.AddEdge(workflow.NodeID(from), workflow.NodeID(to))
	return nil
}

func (c *EngineTestContext) anErrorEdge(from, to string) error {
	c.builder.AddErrorEdge(workflow.NodeID(from), workflow.NodeID(to))
	return nil
}

func (c *EngineTestContext) theEntryNodeIs(id string) error {
	c.builder.SetEntry(workflow.NodeID(id))
	return nil
}

// --- Options ---

func (c *EngineTestContext) theIterationBudgetIs(n int) error {
	c.options = append(c.options, workflow.WithIterationBudget(n))
	return nil
}

func (c *EngineTestContext) theTickTimeoutIs(ms int) error {
	c.options = append(c.options, workflow.WithTickTimeout(time.Duration(ms)*time.Millisecond))
	return nil
}

// --- Execution ---

func (c *EngineTestContext) iRunTheWorkflow() error {
	def, err := c.builder.Build()
	if err != nil {
		return fmt.Errorf("build workflow: %w", err)
	}

	reg := workflow.NewRegistry(c.logger)
	for typeID, block := range c.blocks {
		block := block
		if err := reg.Register(typeID, func(workflow.BlockConfig) (types.Block, error) {
			return block, nil
		}); err != nil {
			return err
		}
	}
	exec := workflow.NewExecutor(reg, c.logger, workflow.WithObserver(c.history, c.observer))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.result, c.lastErr = exec.Run(ctx, def, c.options...)
	return nil
}

func (c *EngineTestContext) iRunTheWorkflowWithTextInput(text string) error {
	c.options = append(c.options, workflow.WithInput(types.TextOutput(text)))
	return c.iRunTheWorkflow()
}

// --- Outcomes ---

func (c *EngineTestContext) theRunShouldSucceed() error {
	if c.lastErr != nil {
		return fmt.Errorf("expected success, got: %w", c.lastErr)
	}
	if c.result == nil {
		return errors.New("no result recorded")
	}
	return nil
}

func (c *EngineTestContext) theRunShouldFailWithCode(code string) error {
	if c.lastErr == nil {
		return errors.New("expected the run to fail")
	}
	if got := types.GetErrorCode(c.lastErr); string(got) != code {
		return fmt.Errorf("expected error code %s, got %s (%v)", code, got, c.lastErr)
	}
	return nil
}

func (c *EngineTestContext) expectOutput(want types.BlockOutput) error {
	if err := c.theRunShouldSucceed(); err != nil {
		return err
	}
	if !reflect.DeepEqual(want, c.result.Output) {
		return fmt.Errorf("expected output %+v, got %+v", want, c.result.Output)
	}
	return nil
}

func (c *EngineTestContext) theOutputShouldBeText(text string) error {
	return c.expectOutput(types.TextOutput(text))
}

func (c *EngineTestContext) theOutputShouldBeString(text string) error {
	return c.expectOutput(types.StringOutput(text))
}

func (c *EngineTestContext) theOutputShouldBeJSON(doc string) error {
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return fmt.Errorf("invalid expected json: %w", err)
	}
	return c.expectOutput(types.JSONOutput(v))
}

func (c *EngineTestContext) theOutputNodeShouldBe(id string) error {
	if err := c.theRunShouldSucceed(); err != nil {
		return err
	}
	if string(c.result.Node) != id {
		return fmt.Errorf("expected output node %s, got %s", id, c.result.Node)
	}
	return nil
}

func (c *EngineTestContext) theActivationCountShouldBe(n int) error {
	if err := c.theRunShouldSucceed(); err != nil {
		return err
	}
	if c.result.Activations != n {
		return fmt.Errorf("expected %d activations, got %d", n, c.result.Activations)
	}
	return nil
}

func (c *EngineTestContext) theBudgetShouldBeExhausted() error {
	if err := c.theRunShouldSucceed(); err != nil {
		return err
	}
	if !c.result.BudgetExhausted {
		return errors.New("expected the iteration budget to be exhausted")
	}
	if c.observer.Count(mocks.EventBudgetExhausted) != 1 {
		return errors.New("expected exactly one budget exhausted event")
	}
	return nil
}

func (c *EngineTestContext) theActivationPathShouldBe(path string) error {
	if err := c.theRunShouldSucceed(); err != nil {
		return err
	}
	h, ok := c.history.Get(c.result.RunID)
	if !ok {
		return fmt.Errorf("no history for run %s", c.result.RunID)
	}
	got := make([]string, 0)
	for _, id := range h.Path() {
		got = append(got, string(id))
	}
	if strings.Join(got, ",") != path {
		return fmt.Errorf("expected path %s, got %s", path, strings.Join(got, ","))
	}
	return nil
}

func (c *EngineTestContext) blockShouldHaveBeenCalled(typeID string, n int) error {
	b, ok := c.blocks[typeID]
	if !ok {
		return fmt.Errorf("unknown block %q", typeID)
	}
	if got := b.CallCount(); got != n {
		return fmt.Errorf("expected block %s to be called %d times, got %d", typeID, n, got)
	}
	return nil
}

func (c *EngineTestContext) blockShouldHaveReceivedError(typeID, fragment string) error {
	b, ok := c.blocks[typeID]
	if !ok {
		return fmt.Errorf("unknown block %q", typeID)
	}
	in, ok := b.LastInput()
	if !ok {
		return fmt.Errorf("block %s was never called", typeID)
	}
	if !in.IsError() || !strings.Contains(in.Message, fragment) {
		return fmt.Errorf("expected an error input containing %q, got %+v", fragment, in)
	}
	return nil
}

func (c *EngineTestContext) theFailureShouldHaveBeenRouted(id string) error {
	for _, node := range c.observer.RoutedErrors() {
		if string(node) == id {
			return nil
		}
	}
	return fmt.Errorf("no routed failure recorded for %s", id)
}
