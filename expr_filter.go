package depository

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zoobzio/capitan"
)

// NewExprFilter compiles expression into a Filter. The expression sees the
// filter context as provided_key, provided_value, key, key_suffix,
// current_value, proposed_value and delete_key, and its result is read with
// DecodeResult:
//
//	delete_key || proposed_value.rollout <= 100
//	{"key": ".", "value": lower(provided_value)}
//
// An expression that fails at run time rejects the change.
func NewExprFilter(name, expression string) (*Filter, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", name, err)
	}
	return NewFilter(name, exprFilterFunc(name, program)), nil
}

func exprFilterFunc(name string, program *vm.Program) FilterFunc {
	return func(ctx context.Context, fc FilterContext) FilterResult {
		out, err := expr.Run(program, fc.env())
		if err != nil {
			capitan.Emit(ctx, FilterFailed,
				KeyPath.Field(fc.ProvidedKey),
				KeyFilter.Field(name),
				KeyError.Field(err.Error()),
			)
			return Reject()
		}
		return DecodeResult(out)
	}
}
