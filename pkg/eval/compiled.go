package eval

import (
	"fmt"
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/rterr"
	"github.com/lola-rv/monitor/pkg/value"
)

// compiledExpr is a closure capturing everything needed to evaluate one
// expression node without re-dispatching on its type. compile builds one
// of these per node, once, recursively, per spec.md §4.3's "compiled closure"
// mode (b): "a per-stream closure/evaluator tree built once, to avoid
// re-traversing the IR on each tick".
type compiledExpr func(ctx *Context) (value.Value, bool, error)

// Compiled is the compiled-closure evaluator. It is the default engine
// per spec.md §6.4.
type Compiled struct {
	mod *ir.Module
	fns map[ir.StreamRef]compiledExpr
}

// NewCompiled builds one closure tree per output stream up front.
func NewCompiled(mod *ir.Module) *Compiled {
	c := &Compiled{mod: mod, fns: make(map[ir.StreamRef]compiledExpr, len(mod.Outputs))}
	for _, out := range mod.Outputs {
		c.fns[out.Ref] = compile(out.Expr)
	}
	return c
}

func (c *Compiled) Eval(ref ir.StreamRef, ctx *Context) (value.Value, error) {
	fn, ok := c.fns[ref]
	if !ok {
		return value.Value{}, fmt.Errorf("eval: %s has no compiled form", ref)
	}
	v, ok, err := fn(ctx)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		name := ""
		if out := c.mod.Output(ref); out != nil {
			name = out.Name
		}
		return value.Value{}, &rterr.MissingRequiredValue{Stream: name, Required: name, Tick: uint64(ctx.Tick)}
	}
	return v, nil
}

func required(fn compiledExpr, tick int64) func(ctx *Context) (value.Value, error) {
	return func(ctx *Context) (value.Value, error) {
		v, ok, err := fn(ctx)
		if err != nil {
			return value.Value{}, err
		}
		if !ok {
			return value.Value{}, &rterr.MissingRequiredValue{Required: "sub-expression", Tick: uint64(tick)}
		}
		return v, nil
	}
}

// compile builds the closure for one expression node, recursing into
// children exactly once regardless of how many ticks the result is
// invoked for.
func compile(e ir.Expr) compiledExpr {
	switch n := e.(type) {
	case ir.LoadConstant:
		v := n.Value
		return func(ctx *Context) (value.Value, bool, error) { return v, true, nil }

	case ir.ArithLog:
		return compileArithLog(n)

	case ir.OffsetLookup:
		target := n.Target
		if n.Kind == ir.OffsetDiscrete {
			k := n.Discrete
			return func(ctx *Context) (value.Value, bool, error) {
				v, ok := ctx.Storage.Cell(target).ReadOffset(k)
				return v, ok, nil
			}
		}
		back := time.Duration(n.Duration)
		return func(ctx *Context) (value.Value, bool, error) {
			v, ok := ctx.Storage.Cell(target).SampleAndHoldAt(ctx.Now.Add(-back))
			return v, ok, nil
		}

	case ir.SampleAndHoldStreamLookup:
		target := n.Target
		return func(ctx *Context) (value.Value, bool, error) {
			v, ok := ctx.Storage.Cell(target).SampleAndHold()
			return v, ok, nil
		}

	case ir.SyncStreamLookup:
		target := n.Target
		return func(ctx *Context) (value.Value, bool, error) {
			v, ok := ctx.Storage.Cell(target).ReadSync(ctx.Tick)
			return v, ok, nil
		}

	case ir.WindowLookup:
		w := n.Window
		return func(ctx *Context) (value.Value, bool, error) {
			return ctx.Windows.Query(w, ctx.Now), true, nil
		}

	case ir.Ite:
		cond := compile(n.Cond)
		then := compile(n.Then)
		els := compile(n.Else)
		return func(ctx *Context) (value.Value, bool, error) {
			cv, err := required(cond, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			b, _ := cv.AsBool()
			if b {
				return then(ctx)
			}
			return els(ctx)
		}

	case ir.TupleExpr:
		elems := make([]compiledExpr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = compile(el)
		}
		return func(ctx *Context) (value.Value, bool, error) {
			vals := make([]value.Value, len(elems))
			for i, fn := range elems {
				v, err := required(fn, ctx.Tick)(ctx)
				if err != nil {
					return value.Value{}, false, err
				}
				vals[i] = v
			}
			return value.Tuple(vals), true, nil
		}

	case ir.FunctionCall:
		name := n.Name
		argFns := make([]compiledExpr, len(n.Args))
		for i, a := range n.Args {
			argFns[i] = compile(a)
		}
		return func(ctx *Context) (value.Value, bool, error) {
			args := make([]value.Value, len(argFns))
			for i, fn := range argFns {
				v, err := required(fn, ctx.Tick)(ctx)
				if err != nil {
					return value.Value{}, false, err
				}
				args[i] = v
			}
			v, err := callBuiltin(name, args)
			if err != nil {
				return value.Value{}, false, err
			}
			return v, true, nil
		}

	case ir.ConvertExpr:
		inner := compile(n.Inner)
		to := n.To
		return func(ctx *Context) (value.Value, bool, error) {
			v, err := required(inner, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			r, err := value.Convert(v, to)
			if err != nil {
				return value.Value{}, false, err
			}
			return r, true, nil
		}

	case ir.DefaultExpr:
		inner := compile(n.Inner)
		def := compile(n.Default)
		return func(ctx *Context) (value.Value, bool, error) {
			v, ok, err := inner(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			if ok {
				return v, true, nil
			}
			return def(ctx)
		}

	default:
		panic(fmt.Sprintf("eval: unknown expression node %T", e))
	}
}

func compileArithLog(n ir.ArithLog) compiledExpr {
	op := n.Op
	switch op {
	case value.OpAnd, value.OpOr:
		left := compile(n.Args[0])
		right := compile(n.Args[1])
		isAnd := op == value.OpAnd
		return func(ctx *Context) (value.Value, bool, error) {
			lv, err := required(left, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			lb, _ := lv.AsBool()
			if isAnd && !lb {
				return value.Bool(false), true, nil
			}
			if !isAnd && lb {
				return value.Bool(true), true, nil
			}
			rv, err := required(right, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			r, err := value.Binary(op, lv, rv)
			return r, err == nil, err
		}

	case value.OpNeg, value.OpNot:
		a := compile(n.Args[0])
		return func(ctx *Context) (value.Value, bool, error) {
			av, err := required(a, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			r, err := value.Unary(op, av)
			return r, err == nil, err
		}

	default:
		a := compile(n.Args[0])
		b := compile(n.Args[1])
		return func(ctx *Context) (value.Value, bool, error) {
			av, err := required(a, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			bv, err := required(b, ctx.Tick)(ctx)
			if err != nil {
				return value.Value{}, false, err
			}
			r, err := value.Binary(op, av, bv)
			return r, err == nil, err
		}
	}
}
