package cel

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// ErrNotBool is returned when a filter expression does not produce a boolean.
var ErrNotBool = errors.New("filter must evaluate to a bool")

// Evaluator compiles and evaluates CEL expressions against JSON documents.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with standard library functions.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// GetEnvironment returns the CEL environment for introspection
func (e *Evaluator) GetEnvironment() *cel.Env {
	return e.env
}

// newStandardCELEnv creates a standard CEL environment with common extensions.
// The document (or table row) is bound to "_".
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Evaluate evaluates expr with data bound to "_".
// Example: "_.items.filter(x, x.price > 10).size()"
func (e *Evaluator) Evaluate(expr string, data jsonvalue.Value) (jsonvalue.Value, error) {
	prg, err := e.program(expr)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	result, _, err := prg.Eval(map[string]any{"_": data.ToAny()})
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("eval error: %w", err)
	}
	v, err := jsonvalue.FromAny(ToGo(result))
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("convert result: %w", err)
	}
	return v, nil
}

func (e *Evaluator) program(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return prg, nil
}

// Filter is a compiled boolean row predicate.
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter compiles a row predicate such as `_.price > 10 && _.active`.
// Expressions whose static type is neither bool nor dyn are rejected.
func (e *Evaluator) CompileFilter(expr string) (*Filter, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if k := ast.OutputType().Kind(); k != types.BoolKind && k != types.DynKind {
		return nil, fmt.Errorf("%w, got %s", ErrNotBool, typeLabel(ast.OutputType()))
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// CompileFilter compiles expr in a fresh standard environment.
func CompileFilter(expr string) (*Filter, error) {
	e, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	return e.CompileFilter(expr)
}

// String returns the source expression.
func (f *Filter) String() string { return f.expr }

// Match reports whether row satisfies the filter.
func (f *Filter) Match(row jsonvalue.Value) (bool, error) {
	out, _, err := f.prg.Eval(map[string]any{"_": row.ToAny()})
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	b, ok := out.(types.Bool)
	if !ok {
		return false, fmt.Errorf("%w, got %s", ErrNotBool, out.Type())
	}
	return bool(b), nil
}

// ToGo converts CEL types to Go native types recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return string(v)
	}

	valuer, ok := val.(interface{ Value() any })
	if !ok {
		return val
	}
	return convertNative(valuer.Value())
}

func convertNative(x any) any {
	switch v := x.(type) {
	case ref.Val:
		return ToGo(v)
	case []ref.Val:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = ToGo(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = convertNative(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = convertNative(elem)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[fmt.Sprint(convertNative(k))] = ToGo(elem)
		}
		return out
	default:
		return x
	}
}

// DiscoverFunctions lists the functions available to expressions, with usage
// hints, sorted by name.
func DiscoverFunctions() ([]string, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return DiscoverFunctionsFromEnv(env), nil
}

// isOperator filters out internal operator-style declarations.
func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	switch name {
	case "!_", "-_", "_[_]", "_?_:_":
		return true
	}
	return false
}

func typeLabel(t *types.Type) string {
	if t == nil {
		return "any"
	}
	if name := t.DeclaredTypeName(); name != "" {
		return name
	}
	if name := t.TypeName(); name != "" {
		return name
	}
	return "any"
}

func formatParams(params []*types.Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = typeLabel(p)
	}
	return strings.Join(parts, ", ")
}

// usageFromOverload builds a human-readable usage string from a function overload.
func usageFromOverload(name string, o *decls.OverloadDecl) string {
	params := o.ArgTypes()
	call := name + "(" + formatParams(params) + ")"
	if o.IsMemberFunction() && len(params) > 0 {
		call = typeLabel(params[0]) + "." + name + "(" + formatParams(params[1:]) + ")"
	}
	if o.ResultType() == nil {
		return call
	}
	return call + " -> " + typeLabel(o.ResultType())
}

// DiscoverFunctionsFromEnv returns "name() - usage" entries for every function
// overload and macro in env.
func DiscoverFunctionsFromEnv(env *cel.Env) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 100)
	add := func(entry string) {
		if !seen[entry] {
			seen[entry] = true
			out = append(out, entry)
		}
	}

	for _, fn := range env.Functions() {
		if isOperator(fn.Name()) {
			continue
		}
		for _, o := range fn.OverloadDecls() {
			add(fn.Name() + "() - " + usageFromOverload(fn.Name(), o))
		}
	}
	for _, m := range env.Macros() {
		if isOperator(m.Function()) {
			continue
		}
		add(m.Function() + "() - CEL macro")
	}

	sort.Strings(out)
	return out
}
