package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the prediction service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, _, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.Prediction.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("prediction service unreachable: %w", err)
		}
		if err := printJSON(cmd.OutOrStdout(), h); err != nil {
			return err
		}
		if !h.Healthy() {
			return fmt.Errorf("prediction service reports %q", h.Status)
		}
		return nil
	},
}

var modelInfoCmd = &cobra.Command{
	Use:   "model-info",
	Short: "Show the prediction model's metadata",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, _, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Prediction.ModelInfo(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch model info: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd, modelInfoCmd)
}
