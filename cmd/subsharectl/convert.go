package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"gitlab.com/subshare/subshare/internal/catalog"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var (
		separator string
		category  int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Convert a copied channel history into TXT records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCategory(category); err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			parser := &catalog.Parser{Separator: separator}
			listings, stats := parser.ParseBatchWithStats(text)
			if len(listings) == 0 {
				return fmt.Errorf("no listings found in %d message(s)", stats.Fragments)
			}
			listings = catalog.AddMissingCodes(listings, opts.codePrefix, category)

			fmt.Fprintf(cmd.ErrOrStderr(), "messages: %d, parsed: %d, discarded: %d, suspected merges: %d\n",
				stats.Fragments, stats.Parsed, stats.Discarded, stats.SuspectedMerges)
			if asJSON {
				return writeJSON(cmd, catalog.Records(listings))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), catalog.ToText(listings))
			return err
		},
	}
	cmd.Flags().StringVar(&separator, "separator", envOr("CHAT_SEPARATOR", catalog.DefaultBatchSeparator),
		"header that starts every message")
	cmd.Flags().IntVar(&category, "category", 1, "category digit for generated codes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON records instead of TXT")
	return cmd
}

func newCodesCmd(opts *rootOptions) *cobra.Command {
	var category int

	cmd := &cobra.Command{
		Use:   "codes [file]",
		Short: "Fill in missing codes in a TXT backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkCategory(category); err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			listings := catalog.FromText(text)
			if len(listings) == 0 {
				return fmt.Errorf("no records found")
			}
			listings = catalog.AssignCodes(listings, opts.codePrefix, category, nil)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), catalog.ToText(listings))
			return err
		},
	}
	cmd.Flags().IntVar(&category, "category", 1, "category digit for generated codes")
	return cmd
}

func checkCategory(category int) error {
	if category < 0 || category > 9 {
		return fmt.Errorf("category must be a single digit, got %d", category)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
