package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/rollup-deployer/internal/deploy/artifacts"
	"github.com/compose-network/rollup-deployer/internal/deploy/chain"
	"github.com/compose-network/rollup-deployer/internal/deploy/genesis"
	"github.com/compose-network/rollup-deployer/internal/deploy/linker"
	"github.com/compose-network/rollup-deployer/internal/deploy/manifest"
	"github.com/compose-network/rollup-deployer/internal/deploy/registry"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type (
	artifactResolver interface {
		Get(name artifacts.ContractName) (artifacts.Artifact, error)
	}

	// RootComputer produces the genesis account-tree root.
	RootComputer interface {
		ComputeGenesisRoot(ctx context.Context, maxDepth uint, coordinatorLeaf common.Hash) (common.Hash, error)
	}

	// Connector builds the registry handle once NameRegistry and ParamManager are on chain.
	Connector func(ctx context.Context, registryAddr, paramManagerAddr common.Address) (registry.Registry, RootComputer, error)

	Option func(*Orchestrator)

	Params struct {
		MaxDepth               uint
		MaxDepositSubtreeDepth uint
		CoordinatorLeaf        common.Hash
	}

	// cachedRoot is a genesis root together with the inputs it was computed from
	cachedRoot struct {
		maxDepth        uint
		coordinatorLeaf common.Hash
		root            common.Hash
	}

	// Orchestrator deploys units one at a time, waiting for each confirmation
	// before the next transaction is sent.
	Orchestrator struct {
		artifacts   artifactResolver
		backend     chain.Backend
		connect     Connector
		genesisOpts genesis.Options

		registry registry.Registry
		genesis  RootComputer
		root     *cachedRoot

		deployed   map[artifacts.ContractName]common.Address
		registered map[registry.Name]common.Address

		logger *slog.Logger
	}
)

// WithGenesisOptions sets the options of the default genesis builder.
func WithGenesisOptions(opts genesis.Options) Option {
	return func(o *Orchestrator) {
		o.genesisOpts = opts
	}
}

// WithConnector replaces the on-chain registry client and genesis builder.
func WithConnector(connect Connector) Option {
	return func(o *Orchestrator) {
		o.connect = connect
	}
}

func NewOrchestrator(resolver artifactResolver, backend chain.Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		artifacts: resolver,
		backend:   backend,
		logger:    logger.Named("deploy_orchestrator"),
	}
	o.connect = o.connectOnChain
	for _, opt := range opts {
		opt(o)
	}
	o.reset()
	return o
}

// reset forgets every address, the registry connection and the genesis root.
func (o *Orchestrator) reset() {
	o.registry = nil
	o.genesis = nil
	o.root = nil
	o.deployed = make(map[artifacts.ContractName]common.Address)
	o.registered = make(map[registry.Name]common.Address)
}

// Run executes the plan in order and returns the manifest. It stops at the
// first failure; already confirmed deployments are left in place. Each call
// starts from scratch and deploys a fresh set of contracts.
func (o *Orchestrator) Run(ctx context.Context, params Params) (manifest.Manifest, error) {
	steps := Plan()
	if err := ValidatePlan(steps); err != nil {
		return nil, err
	}

	// resolve every artifact up front so a missing file aborts before any transaction
	for _, step := range steps {
		if _, err := o.artifacts.Get(step.Contract); err != nil {
			return nil, err
		}
	}

	o.reset()
	o.logger.With("steps", len(steps)).Info("starting deployment")

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &StepError{Index: i, Step: step, Err: err}
		}
		if err := o.execute(ctx, step, params); err != nil {
			return nil, &StepError{Index: i, Step: step, Err: err}
		}
	}

	m := make(manifest.Manifest, len(manifest.Keys))
	for _, step := range steps {
		if step.ManifestKey != "" {
			m[step.ManifestKey] = o.deployed[step.Contract]
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	o.logger.Info("deployment finished")

	return m, nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step, params Params) error {
	args, err := o.resolveArgs(ctx, step.Args, params)
	if err != nil {
		return err
	}

	switch step.Kind {
	case StepLibrary:
		_, err = o.DeployLibrary(ctx, step.Contract)
		return err
	case StepRegistry:
		return o.DeployRegistry(ctx, step.Contract)
	case StepContract:
		_, err = o.DeployAndRegister(ctx, step.Contract, step.Libraries, step.Name, args...)
		return err
	default:
		return fmt.Errorf("%w: unknown kind '%s'", ErrInvalidPlan, step.Kind)
	}
}

// DeployLibrary deploys a library without registering it.
func (o *Orchestrator) DeployLibrary(ctx context.Context, contract artifacts.ContractName) (common.Address, error) {
	artifact, err := o.artifacts.Get(contract)
	if err != nil {
		return common.Address{}, err
	}
	if err := linker.CheckLinked(artifact.Bytecode); err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", contract, err)
	}

	return o.deploy(ctx, artifact, artifact.Bytecode)
}

// DeployRegistry deploys the NameRegistry and connects the registry client.
// ParamManager must already be deployed since it supplies the registry keys.
func (o *Orchestrator) DeployRegistry(ctx context.Context, contract artifacts.ContractName) error {
	paramManager, ok := o.deployed[artifacts.ContractNameParamManager]
	if !ok {
		return fmt.Errorf("%w: %s before %s", ErrDependencyOrder, contract, artifacts.ContractNameParamManager)
	}

	address, err := o.DeployLibrary(ctx, contract)
	if err != nil {
		return err
	}

	reg, root, err := o.connect(ctx, address, paramManager)
	if err != nil {
		return fmt.Errorf("failed to connect name registry: %w", err)
	}
	o.registry = reg
	o.genesis = root
	o.root = nil
	o.registered = make(map[registry.Name]common.Address)

	o.logger.With("name_registry", address.Hex()).With("param_manager", paramManager.Hex()).Info("name registry connected")

	return nil
}

// DeployAndRegister links libs into contract, deploys it with args and
// registers the address under name. Every library must already be deployed.
func (o *Orchestrator) DeployAndRegister(
	ctx context.Context,
	contract artifacts.ContractName,
	libs []artifacts.ContractName,
	name registry.Name,
	args ...any,
) (common.Address, error) {
	if o.registry == nil {
		return common.Address{}, ErrRegistryNotReady
	}
	if err := name.Validate(); err != nil {
		return common.Address{}, err
	}

	artifact, err := o.artifacts.Get(contract)
	if err != nil {
		return common.Address{}, err
	}

	bytecode, err := o.link(artifact, libs)
	if err != nil {
		return common.Address{}, err
	}

	address, err := o.deploy(ctx, artifact, bytecode, args...)
	if err != nil {
		return common.Address{}, err
	}

	if previous, ok := o.registered[name]; ok {
		o.logger.With("name", name).With("previous", previous.Hex()).Warn("overwriting registry entry")
	}
	if err := o.registry.Register(ctx, name, address); err != nil {
		return common.Address{}, err
	}
	o.registered[name] = address

	o.logger.With("name", name).With("address", address.Hex()).Info("registered")

	return address, nil
}

// link substitutes the current address of every lib into the artifact bytecode.
func (o *Orchestrator) link(artifact artifacts.Artifact, libs []artifacts.ContractName) (string, error) {
	for _, lib := range libs {
		if _, ok := o.deployed[lib]; !ok {
			return "", fmt.Errorf("%w: %s required by %s", linker.ErrLibraryNotDeployed, lib, artifact.Name)
		}
	}

	bytecode := artifact.Bytecode
	for _, lib := range libs {
		libArtifact, err := o.artifacts.Get(lib)
		if err != nil {
			return "", err
		}
		bytecode = linker.Link(bytecode, linker.Library{
			Name:       string(lib),
			SourcePath: libArtifact.SourcePath,
			Address:    o.deployed[lib],
		})

		o.logger.With("unit", artifact.Name).With("library", lib).With("address", o.deployed[lib].Hex()).Debug("linked library")
	}

	if err := linker.CheckLinked(bytecode); err != nil {
		return "", fmt.Errorf("%s: %w", artifact.Name, err)
	}

	return bytecode, nil
}

func (o *Orchestrator) deploy(ctx context.Context, artifact artifacts.Artifact, bytecode string, args ...any) (common.Address, error) {
	code, err := hexutil.Decode(bytecode)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid bytecode for %s: %w", artifact.Name, err)
	}

	log := o.logger.With("contract", artifact.Name)
	log.Info("deploying")

	address, err := o.backend.Deploy(ctx, artifact.ABI, code, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy %s: %w", artifact.Name, err)
	}
	o.deployed[artifact.Name] = address

	log.With("address", address.Hex()).Info("deployed")

	return address, nil
}

func (o *Orchestrator) resolveArgs(ctx context.Context, kinds []ArgKind, params Params) ([]any, error) {
	args := make([]any, 0, len(kinds))
	for _, kind := range kinds {
		switch kind {
		case ArgNameRegistry:
			address, ok := o.deployed[artifacts.ContractNameNameRegistry]
			if !ok {
				return nil, fmt.Errorf("%w: %s is not deployed", ErrDependencyOrder, artifacts.ContractNameNameRegistry)
			}
			args = append(args, address)
		case ArgGenesisRoot:
			root, err := o.genesisRoot(ctx, params)
			if err != nil {
				return nil, err
			}
			args = append(args, [32]byte(root))
		case ArgMaxDepth:
			args = append(args, new(big.Int).SetUint64(uint64(params.MaxDepth)))
		case ArgMaxDepositSubtreeDepth:
			args = append(args, new(big.Int).SetUint64(uint64(params.MaxDepositSubtreeDepth)))
		default:
			return nil, fmt.Errorf("%w: unknown argument '%s'", ErrInvalidPlan, kind)
		}
	}
	return args, nil
}

// genesisRoot is computed once per registry connection and tree parameters.
func (o *Orchestrator) genesisRoot(ctx context.Context, params Params) (common.Hash, error) {
	if o.root != nil && o.root.maxDepth == params.MaxDepth && o.root.coordinatorLeaf == params.CoordinatorLeaf {
		return o.root.root, nil
	}
	if o.genesis == nil {
		return common.Hash{}, ErrRegistryNotReady
	}

	root, err := o.genesis.ComputeGenesisRoot(ctx, params.MaxDepth, params.CoordinatorLeaf)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return common.Hash{}, fmt.Errorf("%w: %w", ErrDependencyOrder, err)
		}
		return common.Hash{}, err
	}
	o.root = &cachedRoot{
		maxDepth:        params.MaxDepth,
		coordinatorLeaf: params.CoordinatorLeaf,
		root:            root,
	}

	return root, nil
}

func (o *Orchestrator) connectOnChain(_ context.Context, registryAddr, paramManagerAddr common.Address) (registry.Registry, RootComputer, error) {
	paramManagerArtifact, err := o.artifacts.Get(artifacts.ContractNameParamManager)
	if err != nil {
		return nil, nil, err
	}
	registryArtifact, err := o.artifacts.Get(artifacts.ContractNameNameRegistry)
	if err != nil {
		return nil, nil, err
	}
	merkleUtilsArtifact, err := o.artifacts.Get(artifacts.ContractNameMerkleTreeUtils)
	if err != nil {
		return nil, nil, err
	}

	keys, err := registry.NewParamManager(o.backend, paramManagerAddr, paramManagerArtifact.ABI)
	if err != nil {
		return nil, nil, err
	}
	client, err := registry.NewClient(o.backend, registryAddr, registryArtifact.ABI, keys)
	if err != nil {
		return nil, nil, err
	}
	builder, err := genesis.NewBuilder(client, o.backend, merkleUtilsArtifact.ABI, o.genesisOpts)
	if err != nil {
		return nil, nil, err
	}

	return client, builder, nil
}
