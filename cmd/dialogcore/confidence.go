package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dialogcore/internal/confidence"
	"dialogcore/internal/retrieval"
)

func newConfidenceCmd() *cobra.Command {
	var candidatesPath string
	var keywords []string

	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Score retrieval candidates into a response-strategy decision",
		Example: `  dialogcore confidence --candidates results.json --keyword 退租 --keyword 流程`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(candidatesPath)
			if err != nil {
				return fmt.Errorf("read candidates file: %w", err)
			}

			var candidates []retrieval.Candidate
			if err := json.Unmarshal(data, &candidates); err != nil {
				return fmt.Errorf("parse candidates file: %w", err)
			}

			evaluator := confidence.NewEvaluator(confidence.DefaultConfig(),
				confidence.WithLogger(newLogger()))
			decision := evaluator.Evaluate(cmd.Context(), candidates, keywords)

			encoded, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "path to a JSON file of retrieval candidates")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "question keyword (repeatable)")
	_ = cmd.MarkFlagRequired("candidates")

	return cmd
}
