package deploy

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyOrder means a unit would be deployed before something it depends on.
	ErrDependencyOrder = errors.New("deploy: dependency ordering violated")

	// ErrInvalidPlan reports a structurally broken plan, such as a duplicated name.
	ErrInvalidPlan = errors.New("deploy: invalid plan")

	// ErrRegistryNotReady is returned by DeployAndRegister before the NameRegistry is connected.
	ErrRegistryNotReady = errors.New("deploy: name registry not deployed")
)

// StepError identifies the plan step a run stopped at
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	if e.Step.Name != "" {
		return fmt.Sprintf("deploy: step %d (%s as %s): %v", e.Index, e.Step.Contract, e.Step.Name, e.Err)
	}
	return fmt.Sprintf("deploy: step %d (%s): %v", e.Index, e.Step.Contract, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
