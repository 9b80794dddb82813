package registry

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNotFound is returned by Lookup when nothing is registered under a name.
	ErrNotFound = errors.New("registry: name not registered")

	// ErrUnknownName is returned for names outside the closed set below.
	ErrUnknownName = errors.New("registry: unknown symbolic name")
)

// Name is a symbolic service name used as a registry key.
type Name string

const (
	NameGovernance     Name = "Governance"
	NameMerkleUtils    Name = "MERKLE_UTILS"
	NameLogger         Name = "LOGGER"
	NameTokenRegistry  Name = "TOKEN_REGISTRY"
	NamePOB            Name = "POB"
	NameAccountsTree   Name = "ACCOUNTS_TREE"
	NameTestToken      Name = "TEST_TOKEN"
	NameDepositManager Name = "DEPOSIT_MANAGER"
	NameRollupCore     Name = "ROLLUP_CORE"
)

// paramManagerAccessors maps every name to the ParamManager function returning its key.
var paramManagerAccessors = map[Name]string{
	NameGovernance:     "Governance",
	NameMerkleUtils:    "MERKLE_UTILS",
	NameLogger:         "LOGGER",
	NameTokenRegistry:  "TOKEN_REGISTRY",
	NamePOB:            "POB",
	NameAccountsTree:   "ACCOUNTS_TREE",
	NameTestToken:      "TEST_TOKEN",
	NameDepositManager: "DEPOSIT_MANAGER",
	NameRollupCore:     "ROLLUP_CORE",
}

// ParseName validates s against the closed set of names.
func ParseName(s string) (Name, error) {
	name := Name(s)
	if err := name.Validate(); err != nil {
		return "", err
	}
	return name, nil
}

func (n Name) Validate() error {
	if _, ok := paramManagerAccessors[n]; !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownName, string(n))
	}
	return nil
}

// Accessor returns the ParamManager method that yields the registry key for n.
func (n Name) Accessor() (string, error) {
	accessor, ok := paramManagerAccessors[n]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownName, string(n))
	}
	return accessor, nil
}

// Names returns every known name in a stable order.
func Names() []Name {
	names := make([]Name, 0, len(paramManagerAccessors))
	for name := range paramManagerAccessors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
