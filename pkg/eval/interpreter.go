package eval

import (
	"fmt"
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/rterr"
	"github.com/lola-rv/monitor/pkg/value"
)

// Interpreter is the tree-walking evaluator: it re-dispatches on node type
// for every tick (spec.md §4.3's two evaluation modes, option (a)).
type Interpreter struct {
	mod *ir.Module
}

func NewInterpreter(mod *ir.Module) *Interpreter {
	return &Interpreter{mod: mod}
}

// Eval computes the current value of output ref. A MissingRequiredValue
// error surfaces when the expression's top level resolves to the "None"
// sentinel with no enclosing Default to absorb it. The activation
// condition having fired is the frontend's guarantee this should not
// happen for a well-formed module.
func (it *Interpreter) Eval(ref ir.StreamRef, ctx *Context) (value.Value, error) {
	out := it.mod.Output(ref)
	if out == nil {
		return value.Value{}, fmt.Errorf("eval: %s is not an output stream", ref)
	}
	v, ok, err := it.evalMaybe(out.Expr, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Value{}, &rterr.MissingRequiredValue{Stream: out.Name, Required: out.Name, Tick: uint64(ctx.Tick)}
	}
	return v, nil
}

// eval evaluates e and requires a present value (everywhere except the
// Inner operand of Default, which must tolerate None).
func (it *Interpreter) eval(e ir.Expr, ctx *Context) (value.Value, error) {
	v, ok, err := it.evalMaybe(e, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Value{}, &rterr.MissingRequiredValue{Required: "sub-expression", Tick: uint64(ctx.Tick)}
	}
	return v, nil
}

func (it *Interpreter) evalMaybe(e ir.Expr, ctx *Context) (value.Value, bool, error) {
	switch n := e.(type) {
	case ir.LoadConstant:
		return n.Value, true, nil

	case ir.ArithLog:
		return it.evalArithLog(n, ctx)

	case ir.OffsetLookup:
		cell := ctx.Storage.Cell(n.Target)
		if n.Kind == ir.OffsetDiscrete {
			v, ok := cell.ReadOffset(n.Discrete)
			return v, ok, nil
		}
		v, ok := cell.SampleAndHoldAt(ctx.Now.Add(-time.Duration(n.Duration)))
		return v, ok, nil

	case ir.SampleAndHoldStreamLookup:
		v, ok := ctx.Storage.Cell(n.Target).SampleAndHold()
		return v, ok, nil

	case ir.SyncStreamLookup:
		v, ok := ctx.Storage.Cell(n.Target).ReadSync(ctx.Tick)
		return v, ok, nil

	case ir.WindowLookup:
		return ctx.Windows.Query(n.Window, ctx.Now), true, nil

	case ir.Ite:
		cond, err := it.eval(n.Cond, ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		b, _ := cond.AsBool()
		if b {
			return it.evalMaybe(n.Then, ctx)
		}
		return it.evalMaybe(n.Else, ctx)

	case ir.TupleExpr:
		vals := make([]value.Value, len(n.Elems))
		for i, el := range n.Elems {
			v, err := it.eval(el, ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			vals[i] = v
		}
		return value.Tuple(vals), true, nil

	case ir.FunctionCall:
		args := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := it.eval(a, ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			args[i] = v
		}
		v, err := callBuiltin(n.Name, args)
		if err != nil {
			return value.Value{}, false, err
		}
		return v, true, nil

	case ir.ConvertExpr:
		inner, err := it.eval(n.Inner, ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		r, err := value.Convert(inner, n.To)
		if err != nil {
			return value.Value{}, false, err
		}
		return r, true, nil

	case ir.DefaultExpr:
		v, ok, err := it.evalMaybe(n.Inner, ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		if ok {
			return v, true, nil
		}
		return it.evalMaybe(n.Default, ctx)

	default:
		return value.Value{}, false, fmt.Errorf("eval: unknown expression node %T", e)
	}
}

// evalArithLog short-circuits And/Or for efficiency even though totality
// is already proven upstream (spec.md §4.3).
func (it *Interpreter) evalArithLog(n ir.ArithLog, ctx *Context) (value.Value, bool, error) {
	switch n.Op {
	case value.OpAnd, value.OpOr:
		left, err := it.eval(n.Args[0], ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		lb, _ := left.AsBool()
		if n.Op == value.OpAnd && !lb {
			return value.Bool(false), true, nil
		}
		if n.Op == value.OpOr && lb {
			return value.Bool(true), true, nil
		}
		right, err := it.eval(n.Args[1], ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		r, err := value.Binary(n.Op, left, right)
		return r, err == nil, err

	case value.OpNeg, value.OpNot:
		a, err := it.eval(n.Args[0], ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		r, err := value.Unary(n.Op, a)
		return r, err == nil, err

	default:
		a, err := it.eval(n.Args[0], ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		b, err := it.eval(n.Args[1], ctx)
		if err != nil {
			return value.Value{}, false, err
		}
		r, err := value.Binary(n.Op, a, b)
		return r, err == nil, err
	}
}
