package deploy

import (
	"fmt"

	"github.com/compose-network/rollup-deployer/internal/deploy/artifacts"
	"github.com/compose-network/rollup-deployer/internal/deploy/manifest"
	"github.com/compose-network/rollup-deployer/internal/deploy/registry"
)

type (
	StepKind string
	ArgKind  string

	// Step is one deployment unit of the plan
	Step struct {
		Kind        StepKind                 `yaml:"kind"`
		Contract    artifacts.ContractName   `yaml:"contract"`
		Name        registry.Name            `yaml:"name,omitempty"`
		Libraries   []artifacts.ContractName `yaml:"libraries,omitempty"`
		Args        []ArgKind                `yaml:"args,omitempty"`
		ManifestKey manifest.Key             `yaml:"manifest-key,omitempty"`
	}
)

const (
	// StepLibrary deploys a stateless library; it is linked, never registered.
	StepLibrary StepKind = "library"
	// StepRegistry deploys the NameRegistry and connects the registry client.
	StepRegistry StepKind = "registry"
	// StepContract links, deploys and registers a contract.
	StepContract StepKind = "contract"

	ArgNameRegistry           ArgKind = "name-registry"
	ArgGenesisRoot            ArgKind = "genesis-root"
	ArgMaxDepth               ArgKind = "max-depth"
	ArgMaxDepositSubtreeDepth ArgKind = "max-deposit-subtree-depth"
)

var allLibraries = []artifacts.ContractName{
	artifacts.ContractNameECVerify,
	artifacts.ContractNameTypes,
	artifacts.ContractNameParamManager,
	artifacts.ContractNameRollupUtils,
}

// Plan returns the static deployment order.
func Plan() []Step {
	return []Step{
		{Kind: StepLibrary, Contract: artifacts.ContractNameECVerify},
		{Kind: StepLibrary, Contract: artifacts.ContractNameTypes},
		{Kind: StepLibrary, Contract: artifacts.ContractNameParamManager, ManifestKey: manifest.KeyParamManager},
		{Kind: StepLibrary, Contract: artifacts.ContractNameRollupUtils, ManifestKey: manifest.KeyRollupUtilities},
		{Kind: StepRegistry, Contract: artifacts.ContractNameNameRegistry, ManifestKey: manifest.KeyNameRegistry},
		{
			Kind:        StepContract,
			Contract:    artifacts.ContractNameGovernance,
			Name:        registry.NameGovernance,
			Args:        []ArgKind{ArgMaxDepth, ArgMaxDepositSubtreeDepth},
			ManifestKey: manifest.KeyGovernance,
		},
		{
			Kind:        StepContract,
			Contract:    artifacts.ContractNameMerkleTreeUtils,
			Name:        registry.NameMerkleUtils,
			Libraries:   allLibraries,
			Args:        []ArgKind{ArgNameRegistry},
			ManifestKey: manifest.KeyMerkleTreeUtils,
		},
		{Kind: StepContract, Contract: artifacts.ContractNameLogger, Name: registry.NameLogger, ManifestKey: manifest.KeyLogger},
		{
			Kind:        StepContract,
			Contract:    artifacts.ContractNameTokenRegistry,
			Name:        registry.NameTokenRegistry,
			Libraries:   allLibraries,
			Args:        []ArgKind{ArgNameRegistry},
			ManifestKey: manifest.KeyTokenRegistry,
		},
		{Kind: StepContract, Contract: artifacts.ContractNamePOB, Name: registry.NamePOB, ManifestKey: manifest.KeyProofOfBurnContract},
		{
			Kind:        StepContract,
			Contract:    artifacts.ContractNameIncrementalTree,
			Name:        registry.NameAccountsTree,
			Libraries:   []artifacts.ContractName{artifacts.ContractNameParamManager},
			Args:        []ArgKind{ArgNameRegistry},
			ManifestKey: manifest.KeyAccountTree,
		},
		{Kind: StepContract, Contract: artifacts.ContractNameTestToken, Name: registry.NameTestToken, ManifestKey: manifest.KeyTestToken},
		{
			Kind:     StepContract,
			Contract: artifacts.ContractNameDepositManager,
			Name:     registry.NameDepositManager,
			Libraries: []artifacts.ContractName{
				artifacts.ContractNameTypes,
				artifacts.ContractNameParamManager,
				artifacts.ContractNameRollupUtils,
			},
			Args:        []ArgKind{ArgNameRegistry},
			ManifestKey: manifest.KeyDepositManager,
		},
		{
			Kind:        StepContract,
			Contract:    artifacts.ContractNameRollup,
			Name:        registry.NameRollupCore,
			Libraries:   allLibraries,
			Args:        []ArgKind{ArgNameRegistry, ArgGenesisRoot},
			ManifestKey: manifest.KeyRollupContract,
		},
	}
}

// ValidatePlan checks that steps can run in order: names come from the closed
// sets, every dependency is deployed by an earlier step, and the manifest is complete.
func ValidatePlan(steps []Step) error {
	var (
		libraries     = make(map[artifacts.ContractName]struct{})
		names         = make(map[registry.Name]struct{})
		keys          = make(map[manifest.Key]struct{})
		registryReady bool
	)

	for i, step := range steps {
		if err := step.Contract.Validate(); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrInvalidPlan, i, err)
		}

		if step.ManifestKey != "" {
			if _, dup := keys[step.ManifestKey]; dup {
				return fmt.Errorf("%w: step %d: manifest key %s used twice", ErrInvalidPlan, i, step.ManifestKey)
			}
			keys[step.ManifestKey] = struct{}{}
		}

		for _, lib := range step.Libraries {
			if _, ok := libraries[lib]; !ok {
				return fmt.Errorf("%w: step %d: %s links %s before it is deployed", ErrDependencyOrder, i, step.Contract, lib)
			}
		}

		for _, arg := range step.Args {
			switch arg {
			case ArgNameRegistry:
				if !registryReady {
					return fmt.Errorf("%w: step %d: %s needs the name registry before it is deployed", ErrDependencyOrder, i, step.Contract)
				}
			case ArgGenesisRoot:
				if _, ok := names[registry.NameMerkleUtils]; !ok {
					return fmt.Errorf("%w: step %d: %s needs the genesis root before %s is registered", ErrDependencyOrder, i, step.Contract, registry.NameMerkleUtils)
				}
			case ArgMaxDepth, ArgMaxDepositSubtreeDepth:
			default:
				return fmt.Errorf("%w: step %d: unknown argument '%s'", ErrInvalidPlan, i, arg)
			}
		}

		switch step.Kind {
		case StepLibrary:
			if step.Name != "" || len(step.Args) > 0 {
				return fmt.Errorf("%w: step %d: library %s takes no name or arguments", ErrInvalidPlan, i, step.Contract)
			}
			libraries[step.Contract] = struct{}{}
		case StepRegistry:
			if registryReady {
				return fmt.Errorf("%w: step %d: name registry deployed twice", ErrInvalidPlan, i)
			}
			if _, ok := libraries[artifacts.ContractNameParamManager]; !ok {
				return fmt.Errorf("%w: step %d: name registry needs %s for its keys", ErrDependencyOrder, i, artifacts.ContractNameParamManager)
			}
			registryReady = true
		case StepContract:
			if !registryReady {
				return fmt.Errorf("%w: step %d: %s registers before the name registry exists", ErrDependencyOrder, i, step.Contract)
			}
			if err := step.Name.Validate(); err != nil {
				return fmt.Errorf("%w: step %d: %w", ErrInvalidPlan, i, err)
			}
			if _, dup := names[step.Name]; dup {
				return fmt.Errorf("%w: step %d: name %s registered twice", ErrInvalidPlan, i, step.Name)
			}
			names[step.Name] = struct{}{}
		default:
			return fmt.Errorf("%w: step %d: unknown kind '%s'", ErrInvalidPlan, i, step.Kind)
		}
	}

	for _, key := range manifest.Keys {
		if _, ok := keys[key]; !ok {
			return fmt.Errorf("%w: no step provides manifest key %s", ErrInvalidPlan, key)
		}
	}

	return nil
}
