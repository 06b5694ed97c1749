package main

import (
	"fmt"

	"marketplace_backend/internal/operators"
	"marketplace_backend/platform/validator"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Operator queue commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recompute operator queue counters from active requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, log, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := operators.NewModule(pool, validator.New(), log).Service().Reconcile(ctx)
			if err != nil {
				return fmt.Errorf("reconcile queues: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Corrected %d operator queue counters\n", res.Corrected)
			return nil
		},
	})
	return cmd
}
