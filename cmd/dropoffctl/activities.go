package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movie-dropoff/pkg/registry"
)

var activitiesPath string

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List the job types the worker manager serves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadActivities()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "registry %s\n\n", reg.Version)
		for _, a := range reg.Activities {
			fmt.Fprintf(out, "%-16s %-18s timeout=%-5s retries=%d\n  %s\n", a.TaskType, a.DisplayName, a.Timeout, a.Retries, a.Description)
		}
		return nil
	},
}

var validateActivitiesCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a registry file for duplicate task types, bad timeouts and unknown error codes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadActivities()
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d activities ok\n", len(reg.Activities))
		return nil
	},
}

func loadActivities() (*registry.ActivityRegistry, error) {
	if activitiesPath != "" {
		return registry.LoadRegistry(activitiesPath)
	}
	return registry.Default()
}

func init() {
	activitiesCmd.PersistentFlags().StringVar(&activitiesPath, "path", "", "Registry file (default: the built-in registry)")
	activitiesCmd.AddCommand(validateActivitiesCmd)
	rootCmd.AddCommand(activitiesCmd)
}
