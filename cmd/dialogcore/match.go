package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dialogcore/internal/keyword"
)

func newMatchCmd() *cobra.Command {
	var keywords []string
	var strategy string

	cmd := &cobra.Command{
		Use:   "match <message>",
		Short: "Try keyword matching against a message",
		Args:  cobra.ExactArgs(1),
		Example: `  dialogcore match "試過了還是不行" --keyword 還是不行 --keyword 試過了
  dialogcore match "我不要" --keyword 要 --strategy contains`,
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher := keyword.NewMatcher(keyword.WithLogger(newLogger()))
			message := args[0]

			var result keyword.MatchResult
			if strategy == "" {
				result = matcher.MatchAny(message, keywords, nil)
			} else {
				result = matcher.Match(message, keywords, keyword.Strategy(strategy), false)
			}

			out := cmd.OutOrStdout()
			if !result.Matched {
				fmt.Fprintln(out, "no match")
				return nil
			}
			fmt.Fprintf(out, "matched %q via %s", result.Keyword, result.Strategy)
			if result.Synonym != "" {
				fmt.Fprintf(out, " (synonym %q)", result.Synonym)
			}
			fmt.Fprintf(out, " score=%.3f\n", result.Score)

			if kw, score, ok := matcher.BestMatch(message, keywords); ok {
				fmt.Fprintf(out, "best match: %q score=%.3f\n", kw, score)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "keyword to match (repeatable)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "single strategy (exact, contains, regex, synonyms); default tries contains then synonyms")
	_ = cmd.MarkFlagRequired("keyword")

	return cmd
}
