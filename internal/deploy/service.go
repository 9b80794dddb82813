package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/deploy/genesis"
	"github.com/compose-network/rollup-deployer/internal/deploy/manifest"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

type (
	runner interface {
		Run(ctx context.Context, params Params) (manifest.Manifest, error)
	}

	manifestWriter interface {
		Write(m manifest.Manifest) error
	}

	// Service runs a deployment and persists its manifest
	Service struct {
		runner runner
		writer manifestWriter
		logger *slog.Logger
	}
)

func NewService(runner runner, writer manifestWriter) *Service {
	return &Service{
		runner: runner,
		writer: writer,
		logger: logger.Named("deploy_service"),
	}
}

// Deploy runs the plan. The manifest is written only after every step succeeded.
func (s *Service) Deploy(ctx context.Context, params Params) (manifest.Manifest, error) {
	m, err := s.runner.Run(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := s.writer.Write(m); err != nil {
		return nil, err
	}

	for _, key := range manifest.Keys {
		s.logger.With("key", key).With("address", m[key].Hex()).Info("deployed address")
	}

	return m, nil
}

// ParamsFromConfig converts validated configuration into run parameters and genesis options.
func ParamsFromConfig(cfg configs.Deploy) (Params, genesis.Options, error) {
	if err := cfg.Validate(); err != nil {
		return Params{}, genesis.Options{}, fmt.Errorf("invalid deploy configuration: %w", err)
	}

	params := Params{
		MaxDepth:               uint(cfg.MaxDepth),
		MaxDepositSubtreeDepth: uint(cfg.MaxDepositSubtreeDepth),
		CoordinatorLeaf:        common.HexToHash(cfg.CoordinatorLeaf),
	}
	opts := genesis.Options{
		EmptyLeaf:     common.HexToHash(cfg.EmptyLeaf),
		VerifyLocally: cfg.VerifyGenesisRoot,
	}

	return params, opts, nil
}
