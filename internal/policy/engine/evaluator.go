// Package engine evaluates screen-access policy for the gateway: which role
// rank may reach which protected surface.
package engine

import "context"

// Evaluator answers role-hierarchy access questions. The session store
// delegates HasRole here so the hierarchy lives in policy, not in Go
// conditionals scattered across handlers.
type Evaluator interface {
	// Allows reports whether a subject holding role meets the required role.
	// An unknown role ranks below VOTER.
	Allows(ctx context.Context, role, required string) (bool, error)
	// HealthCheck verifies the policy engine can compile and evaluate its
	// policy. Returns nil on success.
	HealthCheck(ctx context.Context) error
}
