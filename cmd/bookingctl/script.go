package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"marketplace_backend/internal/businesses"
	"marketplace_backend/internal/scripts"
	"marketplace_backend/internal/scripts/domain"
	"marketplace_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// scriptFile is the on-disk YAML layout of an intake script.
type scriptFile struct {
	Steps []domain.Step `yaml:"steps"`
}

func newScriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Intake script commands",
	}

	cmd.AddCommand(newScriptImportCmd())
	cmd.AddCommand(newScriptCheckCmd())
	return cmd
}

func newScriptImportCmd() *cobra.Command {
	var businessID string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace a business script with the steps in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScriptImport(cmd, args[0], businessID)
		},
	}

	cmd.Flags().StringVarP(&businessID, "business", "b", "", "business id to import into")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}

func newScriptCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse a YAML script and print advisory warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := loadScriptFile(args[0])
			if err != nil {
				return err
			}
			warnings, err := domain.Validate(steps)
			if err != nil {
				return err
			}
			printWarnings(cmd.OutOrStdout(), warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "%d steps parsed\n", len(steps))
			return nil
		},
	}
}

func runScriptImport(cmd *cobra.Command, path, rawBusinessID string) error {
	businessID, err := uuid.Parse(rawBusinessID)
	if err != nil {
		return fmt.Errorf("invalid business id %q: %w", rawBusinessID, err)
	}

	steps, err := loadScriptFile(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, log, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	module := scripts.NewModule(pool, nil, 0, businesses.NewRepository(pool), validator.New(), log)
	saved, err := module.Service().Import(ctx, businessID, steps)
	if err != nil {
		return fmt.Errorf("import script: %w", err)
	}

	out := cmd.OutOrStdout()
	printWarnings(out, saved.Warnings)
	fmt.Fprintf(out, "Imported %d steps into business %s (version %d)\n", len(saved.Steps), saved.BusinessID, saved.Version)
	return nil
}

func loadScriptFile(path string) ([]domain.Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script file: %w", err)
	}
	defer f.Close()
	return parseScript(f)
}

func parseScript(r io.Reader) ([]domain.Step, error) {
	var file scriptFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("script file is empty")
		}
		return nil, fmt.Errorf("parse script file: %w", err)
	}
	return file.Steps, nil
}

func printWarnings(w io.Writer, warnings []domain.Warning) {
	for _, warn := range warnings {
		if warn.StepID != "" {
			fmt.Fprintf(w, "warning: %s: %s\n", warn.StepID, warn.Message)
			continue
		}
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
}
