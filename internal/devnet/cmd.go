package devnet

import (
	"log/slog"

	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/deploy/chain"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "devnet",
	Short: "Manage a local anvil chain to deploy against",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the local devnet container",
	RunE: func(cmd *cobra.Command, args []string) error {
		docker, err := NewDockerClient()
		if err != nil {
			return err
		}
		defer docker.Close()

		url, err := NewService(docker, chain.WaitForRPC).Up(cmd.Context(), configs.Values.Devnet)
		if err != nil {
			return err
		}

		slog.With("rpc_url", url).Info("devnet started")
		return nil
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the local devnet container",
	RunE: func(cmd *cobra.Command, args []string) error {
		docker, err := NewDockerClient()
		if err != nil {
			return err
		}
		defer docker.Close()

		return NewService(docker, chain.WaitForRPC).Down(cmd.Context(), configs.Values.Devnet)
	},
}

func init() {
	CMD.AddCommand(upCmd)
	CMD.AddCommand(downCmd)
}
