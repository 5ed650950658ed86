package eval

import (
	"fmt"
	"math"
	"regexp"
	"sync"

	"github.com/lola-rv/monitor/pkg/value"
)

// regexCache holds compiled patterns keyed by source text. matches()
// patterns come from IR literals, so the same pattern is compiled at
// most once no matter how many ticks evaluate the call.
var regexCache sync.Map // string -> *regexp.Regexp

func compileCached(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := regexCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// callBuiltin dispatches a Function node by name, per spec.md §4.3's
// built-in list: sqrt, sin, cos, and matches(string, regex).
func callBuiltin(name string, args []value.Value) (value.Value, error) {
	switch name {
	case "sqrt":
		return floatUnary(args, math.Sqrt)
	case "sin":
		return floatUnary(args, math.Sin)
	case "cos":
		return floatUnary(args, math.Cos)
	case "matches":
		return matches(args)
	default:
		return value.Value{}, fmt.Errorf("unknown built-in function %q", name)
	}
}

func asFloat(v value.Value) (float64, bool) {
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if i, ok := v.AsSigned(); ok {
		return float64(i), true
	}
	if u, ok := v.AsUnsigned(); ok {
		return float64(u), true
	}
	return 0, false
}

func floatUnary(args []value.Value, fn func(float64) float64) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	f, ok := asFloat(args[0])
	if !ok {
		return value.Value{}, fmt.Errorf("argument is not numeric")
	}
	r, ok := value.Float(fn(f))
	if !ok {
		return value.Value{}, fmt.Errorf("function produced NaN")
	}
	return r, nil
}

func matches(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, fmt.Errorf("matches expects 2 arguments, got %d", len(args))
	}
	s, ok := args[0].AsString()
	if !ok {
		return value.Value{}, fmt.Errorf("matches: first argument is not a string")
	}
	pattern, ok := args[1].AsString()
	if !ok {
		return value.Value{}, fmt.Errorf("matches: second argument is not a string")
	}
	re, err := compileCached(pattern)
	if err != nil {
		return value.Value{}, fmt.Errorf("matches: invalid regex %q: %w", pattern, err)
	}
	return value.Bool(re.MatchString(s)), nil
}
