package blocks

import (
	"context"
	"strings"

	"github.com/BaSui01/blockflow/internal/database"
	"github.com/BaSui01/blockflow/types"
)

type sqlQueryBlock struct {
	db  *database.PoolManager
	cfg SQLQueryConfig
}

func (e *env) newSQLQuery(cfg SQLQueryConfig) (types.Block, error) {
	if e.db == nil {
		return nil, types.NewError(types.ErrBuild, "sql_query: no database configured")
	}
	if strings.TrimSpace(cfg.Query) == "" {
		return nil, types.NewError(types.ErrBuild, "sql_query requires a query")
	}
	return &sqlQueryBlock{db: e.db, cfg: cfg}, nil
}

// Execute runs the query and emits the rows as a JSON array of objects.
// Without configured args, a JSON array input supplies them and a scalar
// input becomes the single argument.
func (b *sqlQueryBlock) Execute(ctx context.Context, in types.BlockInput) (types.ExecutionResult, error) {
	if err := types.ErrorFromInput(in); err != nil {
		return types.ExecutionResult{}, err
	}

	args := b.cfg.Args
	if len(args) == 0 {
		switch in.Kind {
		case types.KindJSON:
			if arr, ok := in.Data.([]any); ok {
				args = arr
			} else {
				args = []any{in.Data}
			}
		case types.KindString, types.KindText:
			args = []any{in.Value}
		}
	}

	rows, err := b.db.Query(ctx, b.cfg.Query, args...)
	if err != nil {
		return types.ExecutionResult{}, types.NewError(types.ErrIO, "sql_query failed").
			WithCause(err).
			WithRetryable(database.IsRetryableError(err))
	}

	items := make([]any, len(rows))
	for i, row := range rows {
		items[i] = row
	}
	return types.Once(types.JSONOutput(items)), nil
}
