package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dialogcore/internal/observability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dialogcore",
		Short: "Diagnostic tool for the conversational decision core",
		Long: `dialogcore exercises the decision core from the command line:
score retrieval candidates, try keyword matches against a message, and
validate guided-dialogue field values.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.SetEnvPrefix("DIALOGCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newConfidenceCmd())
	root.AddCommand(newMatchCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newDigressionCmd())

	return root
}

func newLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	})
}
