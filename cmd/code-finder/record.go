// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/code-finder/internal/store"
)

var recordCmd = &cobra.Command{
	Use:   "record [paper-id]",
	Short: "Print the stored record for a paper",
	Long: `Record prints the JSON record previously produced for a paper, or a
summary of all records when no paper ID is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().String("records-dir", "records", "base directory for produced records")

	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	recordsDir, _ := cmd.Flags().GetString("records-dir")

	s, err := store.New(recordsDir)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		summary, err := s.Summarize(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("records: %d (official: %d, unofficial: %d, none found: %d)\n",
			summary.Total, summary.Official, summary.Unofficial, summary.NoneFound)
		return nil
	}

	record, err := s.Load(args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no record for paper %s", args[0])
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
