// Package constraint implements the iterative constraint subsystem: residual
// evaluation, correction computation, damped enforcement, and failure
// classification.
//
// The solver never mutates the caller's world. Each Solve works on a scratch
// clone, evaluating enabled constraints in descending priority order and
// accumulating per-object correction deltas. The enforcer replays those
// deltas onto the live world with a damping factor, then revalidates. When
// the solver fails to converge, the classifier turns the result into a
// mechanical action (accept / retry / reject) and a separate human-facing
// diagnosis.
//
// Constraint equations are Lua expressions evaluated with the referenced
// objects and parameters bound as globals; the expression value is the
// residual. Distance and angle constraints bypass the expression engine and
// compute their residuals directly.
package constraint
