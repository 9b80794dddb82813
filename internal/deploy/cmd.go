package deploy

import (
	"fmt"
	"log/slog"

	"github.com/compose-network/rollup-deployer/configs"
	"github.com/compose-network/rollup-deployer/internal/deploy/artifacts"
	"github.com/compose-network/rollup-deployer/internal/deploy/chain"
	"github.com/compose-network/rollup-deployer/internal/deploy/manifest"
	fsjson "github.com/compose-network/rollup-deployer/internal/infra/filesystem/json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var CMD = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the rollup contract system and write the address manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values.Deploy
		slog.Info("starting deploy command. Validating config", slog.String("rpc_url", cfg.RPCURL))

		params, genesisOpts, err := ParamsFromConfig(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := chain.WaitForRPC(ctx, cfg.RPCURL, cfg.RPCWaitAttempts); err != nil {
			return err
		}

		client, err := chain.Dial(ctx, cfg.RPCURL, cfg.PrivateKey, chain.Options{
			GasLimit:            uint64(cfg.GasLimit),
			ConfirmationTimeout: cfg.ConfirmationTimeout,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		slog.With("deployer", client.From().Hex()).Info("connected to chain")

		orchestrator := NewOrchestrator(
			artifacts.NewDirResolver(cfg.ArtifactsDir, fsjson.NewReader()),
			client,
			WithGenesisOptions(genesisOpts),
		)
		service := NewService(orchestrator, manifest.NewWriter(cfg.ManifestPath, cfg.ManifestFormat, fsjson.NewWriter()))

		if _, err := service.Deploy(ctx, params); err != nil {
			return fmt.Errorf("deployment failed: %w", err)
		}

		slog.With("manifest", cfg.ManifestPath).Info("deployment completed successfully")

		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the deployment plan without touching the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := Plan()
		if err := ValidatePlan(steps); err != nil {
			return err
		}

		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(steps); err != nil {
			return fmt.Errorf("could not marshal plan. Err: '%w'", err)
		}
		return encoder.Close()
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the contracts with forge and write one artifact per contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		contractsDir, err := cmd.Flags().GetString("contracts-dir")
		if err != nil {
			return err
		}

		outputDir := configs.Values.Deploy.ArtifactsDir
		if outputDir == "" {
			return fmt.Errorf("deploy.artifacts-dir is required")
		}

		compiler := artifacts.NewCompiler(contractsDir, outputDir, fsjson.NewWriter())
		if err := compiler.Compile(cmd.Context(), artifacts.SortedContractNames()); err != nil {
			return err
		}

		slog.With("output_dir", outputDir).Info("artifacts written")

		return nil
	},
}
