// Package devnet runs a disposable anvil chain in docker to deploy against.
package devnet

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/containerd/errdefs"
)

type (
	engine interface {
		ImageExists(ctx context.Context, imageName string) (bool, error)
		PullImage(ctx context.Context, imageName string) error
		BuildImage(ctx context.Context, contextDir, dockerfile, tag string) error
		StartContainer(ctx context.Context, opts ContainerOptions) (string, error)
		RemoveContainer(ctx context.Context, name string) error
	}

	rpcWaiter func(ctx context.Context, url string, attempts int) error

	Service struct {
		engine  engine
		waitRPC rpcWaiter
		logger  *slog.Logger
	}
)

const rpcWaitAttempts = 30

func NewService(engine engine, waitRPC rpcWaiter) *Service {
	return &Service{
		engine:  engine,
		waitRPC: waitRPC,
		logger:  logger.Named("devnet"),
	}
}

// Up replaces any previous devnet container with a fresh one and returns its RPC URL
// once the node answers.
func (s *Service) Up(ctx context.Context, cfg configs.Devnet) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if err := s.ensureImage(ctx, cfg); err != nil {
		return "", err
	}

	if err := s.Down(ctx, cfg); err != nil {
		return "", err
	}

	_, err := s.engine.StartContainer(ctx, ContainerOptions{
		Name:  cfg.ContainerName,
		Image: cfg.Image,
		Cmd:   []string{anvilCommand(cfg)},
		Port:  cfg.RPCPort,
	})
	if err != nil {
		return "", err
	}

	url := RPCURL(cfg)
	if err := s.waitRPC(ctx, url, rpcWaitAttempts); err != nil {
		return "", fmt.Errorf("devnet did not become ready: %w", err)
	}

	s.logger.With("rpc_url", url).With("chain_id", cfg.ChainID).Info("devnet is up")

	return url, nil
}

// Down removes the devnet container. It is a no-op when none is running.
func (s *Service) Down(ctx context.Context, cfg configs.Devnet) error {
	if err := s.engine.RemoveContainer(ctx, cfg.ContainerName); err != nil {
		if errdefs.IsNotFound(err) {
			s.logger.With("name", cfg.ContainerName).Debug("no devnet container to remove")
			return nil
		}
		return fmt.Errorf("failed to remove container %s: %w", cfg.ContainerName, err)
	}

	s.logger.With("name", cfg.ContainerName).Info("devnet container removed")

	return nil
}

func (s *Service) ensureImage(ctx context.Context, cfg configs.Devnet) error {
	if cfg.Dockerfile != "" {
		return s.engine.BuildImage(ctx, filepath.Dir(cfg.Dockerfile), filepath.Base(cfg.Dockerfile), cfg.Image)
	}

	exists, err := s.engine.ImageExists(ctx, cfg.Image)
	if err != nil {
		return fmt.Errorf("failed to inspect image %s: %w", cfg.Image, err)
	}
	if exists {
		return nil
	}

	return s.engine.PullImage(ctx, cfg.Image)
}

// RPCURL is the host-side endpoint of the devnet node.
func RPCURL(cfg configs.Devnet) string {
	return fmt.Sprintf("http://localhost:%d", cfg.RPCPort)
}

// the foundry image runs its command through `sh -c`
func anvilCommand(cfg configs.Devnet) string {
	return fmt.Sprintf("anvil --host 0.0.0.0 --port %d --chain-id %d", cfg.RPCPort, cfg.ChainID)
}
