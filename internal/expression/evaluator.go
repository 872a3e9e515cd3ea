package expression

import (
	"fmt"

	"github.com/powerwordtree/dynwatch/internal/result"
)

// EvalError reports a failure while evaluating a parsed expression, such
// as a fetch_N reference past the available fetch groups.
type EvalError struct {
	Expr string
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Expr, e.Msg)
}

// Evaluate computes the boolean value of the expression against the
// current tick's fetch result sets, indexed in declaration order.
//
// A bare set expression is truthy iff the resulting set is non-empty.
// "any" tests the other relation operand for non-emptiness and is an
// error anywhere else.
func (e *Expression) Evaluate(fetches []result.Set) (bool, error) {
	switch n := e.root.(type) {
	case *RelExpr:
		return e.evalRelation(n, fetches)
	case *AnyTerm:
		return false, e.errf("any is only valid beside == or !=")
	default:
		set, err := e.evalSet(e.root, fetches)
		if err != nil {
			return false, err
		}
		return !set.IsEmpty(), nil
	}
}

func (e *Expression) evalRelation(n *RelExpr, fetches []result.Set) (bool, error) {
	_, leftAny := n.Left.(*AnyTerm)
	_, rightAny := n.Right.(*AnyTerm)

	if leftAny || rightAny {
		if n.Op != OpEqual && n.Op != OpNotEqual {
			return false, e.errf("any cannot be used with %q", n.Op)
		}
		if leftAny && rightAny {
			return false, e.errf("any cannot appear on both sides of %q", n.Op)
		}
		other := n.Left
		if leftAny {
			other = n.Right
		}
		set, err := e.evalSet(other, fetches)
		if err != nil {
			return false, err
		}
		if n.Op == OpEqual {
			return !set.IsEmpty(), nil
		}
		return set.IsEmpty(), nil
	}

	left, err := e.evalSet(n.Left, fetches)
	if err != nil {
		return false, err
	}
	right, err := e.evalSet(n.Right, fetches)
	if err != nil {
		return false, err
	}
	switch n.Op {
	case OpEqual:
		return left.Equal(right), nil
	case OpNotEqual:
		return !left.Equal(right), nil
	case OpSubset:
		return left.SubsetOf(right), nil
	case OpSuperset:
		return right.SubsetOf(left), nil
	case OpProperSubset:
		return left.ProperSubsetOf(right), nil
	case OpProperSuperset:
		return right.ProperSubsetOf(left), nil
	}
	return false, e.errf("unknown relation %q", n.Op)
}

func (e *Expression) evalSet(n Node, fetches []result.Set) (result.Set, error) {
	switch t := n.(type) {
	case *EmptyTerm:
		return result.New(), nil
	case *AnyTerm:
		return nil, e.errf("any is only valid beside == or !=")
	case *FetchTerm:
		if t.Index >= len(fetches) {
			return nil, e.errf("fetch_%d out of range: %d fetch groups configured", t.Index, len(fetches))
		}
		set := fetches[t.Index]
		if set == nil {
			set = result.New()
		}
		return set, nil
	case *SetOpExpr:
		left, err := e.evalSet(t.Left, fetches)
		if err != nil {
			return nil, err
		}
		right, err := e.evalSet(t.Right, fetches)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case OpIntersect:
			return left.Intersect(right), nil
		case OpUnion:
			return left.Union(right), nil
		case OpDifference:
			return left.Difference(right), nil
		case OpSymmetric:
			return left.SymmetricDifference(right), nil
		}
		return nil, e.errf("unknown set operator %q", t.Op)
	default:
		return nil, e.errf("unexpected node %T", n)
	}
}

func (e *Expression) errf(format string, args ...interface{}) *EvalError {
	return &EvalError{Expr: e.src, Msg: fmt.Sprintf(format, args...)}
}
