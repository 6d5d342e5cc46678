package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dialogcore/internal/digression"
	"dialogcore/internal/embedding"
	"dialogcore/internal/forms"
)

func newDigressionCmd() *cobra.Command {
	var (
		fieldPath    string
		configPath   string
		embeddingURL string
		tenantID     int64
		language     string
	)

	cmd := &cobra.Command{
		Use:   "digression <message>",
		Short: "Run the digression cascade against a message",
		Args:  cobra.ExactArgs(1),
		Example: `  dialogcore digression "取消" --field phone.yaml
  dialogcore digression "為什麼需要電話" --field phone.yaml --tenant 3 --language zh-TW`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			var field forms.FieldDefinition
			if fieldPath != "" {
				data, err := os.ReadFile(fieldPath)
				if err != nil {
					return fmt.Errorf("read field definition: %w", err)
				}
				var spec fieldSpec
				if err := yaml.Unmarshal(data, &spec); err != nil {
					return fmt.Errorf("parse field definition: %w", err)
				}
				if field, err = spec.definition(); err != nil {
					return fmt.Errorf("invalid field definition: %w", err)
				}
			}

			var provider digression.ConfigProvider
			if configPath != "" {
				store := digression.NewFileStore(digression.FileStoreConfig{Path: configPath})
				provider = digression.NewCachingProvider(store, digression.DefaultTTL,
					digression.WithProviderLogger(logger))
			}

			// The embedding endpoint is optional; without it the semantic
			// drift strategy is disabled.
			var embedder embedding.Embedder
			if embeddingURL != "" {
				client, err := embedding.NewClient(embedding.ClientConfig{
					BaseURL: embeddingURL,
					Timeout: 10 * time.Second,
				})
				if err != nil {
					return fmt.Errorf("create embedding client: %w", err)
				}
				embedder = client
			}

			detector := digression.NewDetector(provider, embedder,
				digression.WithLogger(logger))
			result := detector.Detect(cmd.Context(), args[0], field, nil, nil, tenantID, language)

			out := cmd.OutOrStdout()
			if !result.IsDigression {
				fmt.Fprintln(out, "no digression")
				return nil
			}
			fmt.Fprintf(out, "digression type=%s confidence=%.2f\n", result.Type, result.Confidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&fieldPath, "field", "", "path to a YAML field definition (enables the semantic check)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON digression config store")
	cmd.Flags().StringVar(&embeddingURL, "embedding-url", "", "embedding service base URL (enables the semantic check)")
	cmd.Flags().Int64Var(&tenantID, "tenant", 1, "tenant ID")
	cmd.Flags().StringVar(&language, "language", "zh-TW", "language code")

	return cmd
}
