package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/blockflow/types"
	"github.com/BaSui01/blockflow/workflow"
)

func TestDefaultRegistry_RegistersBuiltins(t *testing.T) {
	reg := DefaultRegistry(zaptest.NewLogger(t))

	want := []string{
		TypeCacheGet, TypeCacheSet, TypeCombine, TypeConditional, TypeCron,
		TypeCustomTransform, TypeDelay, TypeEcho, TypeFileRead, TypeFileWrite,
		TypeFilter, TypeHTTPRequest, TypeIntervalTrigger, TypeJSONValidate,
		TypeJWTSign, TypeJWTVerify, TypeListDirectory, TypeMerge,
		TypeNATSPublish, TypeNATSSubscribe, TypeSQLQuery, TypeSelectFirst,
		TypeSplit, TypeSplitByKeys, TypeSplitLines, TypeTemplate,
		TypeWebSocketListen,
	}
	assert.ElementsMatch(t, want, reg.Types())
	assert.False(t, reg.Has(workflow.ChildWorkflowType))
}

func TestRegisterBuiltins_KeepsCustomTypes(t *testing.T) {
	reg := workflow.NewRegistry(nil)
	reg.MustRegister("custom", func(workflow.BlockConfig) (types.Block, error) {
		return customTransformBlock{}, nil
	})
	RegisterBuiltins(reg, nil)

	assert.True(t, reg.Has("custom"))
	assert.True(t, reg.Has(TypeEcho))
}

func TestTyped_DecodesUntypedPayload(t *testing.T) {
	reg := DefaultRegistry(zaptest.NewLogger(t))

	block, err := reg.Get(workflow.CustomConfig(TypeSplitByKeys, map[string]any{"keys": []any{"x", "y"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, block.(*splitByKeysBlock).keys)

	_, err = reg.Get(workflow.CustomConfig(TypeSplitByKeys, map[string]any{"keys": "not-a-list"}))
	require.Error(t, err)
	assert.True(t, types.IsBuildError(err))
}
