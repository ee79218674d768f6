package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const accessQuery = "data.voteguard.access.allow"

// Role-access policy: SUPER_ADMIN > ADMIN > VOTER; unknown roles rank 0.
const accessRegoPolicy = `package voteguard.access

default allow = false

rank = {"SUPER_ADMIN": 3, "ADMIN": 2, "VOTER": 1}

allow if {
	object.get(rank, input.role, 0) >= object.get(rank, input.required, 0)
}
`

// OPAEvaluator evaluates the role-access policy with the in-process OPA Rego engine.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator compiles the access policy and returns the evaluator.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"access.rego": accessRegoPolicy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// Allows evaluates the access policy for (role, required).
func (e *OPAEvaluator) Allows(ctx context.Context, role, required string) (bool, error) {
	input := map[string]interface{}{
		"role":     role,
		"required": required,
	}
	q := rego.New(
		rego.Query(accessQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy returned non-boolean result")
	}
	return allowed, nil
}

// HealthCheck verifies the compiled policy evaluates for a minimal input.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allows(ctx, "ADMIN", "ADMIN")
	return err
}
