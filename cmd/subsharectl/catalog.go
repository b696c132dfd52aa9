package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as a TXT backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, ctrl, closeDB, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			text, err := ctrl.ExportText(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(out, []byte(text+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "catalog written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		category int
		chat     bool
	)

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the catalog from a TXT backup, or add listings from a channel history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCategory(category); err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			_, ctrl, closeDB, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if !chat {
				n, err := ctrl.ImportText(cmd.Context(), text, category)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "catalog replaced: %d listing(s)\n", n)
				return nil
			}

			res, err := ctrl.ImportChat(cmd.Context(), text, category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created: %d, failed: %d, suspected merges: %d\n",
				res.Success, res.Errors, res.Stats.SuspectedMerges)
			for _, f := range res.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", f)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&category, "category", 1, "category digit for generated codes")
	cmd.Flags().BoolVar(&chat, "chat", false, "input is a copied channel history; add instead of replace")
	return cmd
}
