package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dialogcore/internal/forms"
)

// fieldSpec is the on-disk form of a field definition; the validation kind
// is a string there and parsed into the closed enum.
type fieldSpec struct {
	Name       string `yaml:"name"`
	Label      string `yaml:"label"`
	Prompt     string `yaml:"prompt"`
	Kind       string `yaml:"kind"`
	Validation string `yaml:"validation"`
	Required   bool   `yaml:"required"`
	MinLength  int    `yaml:"min_length"`
	MaxLength  int    `yaml:"max_length"`
}

func (s fieldSpec) definition() (forms.FieldDefinition, error) {
	validation, err := forms.ParseValidationKind(s.Validation)
	if err != nil {
		return forms.FieldDefinition{}, err
	}
	return forms.FieldDefinition{
		Name:       s.Name,
		Label:      s.Label,
		Prompt:     s.Prompt,
		Kind:       s.Kind,
		Validation: validation,
		Required:   s.Required,
		MinLength:  s.MinLength,
		MaxLength:  s.MaxLength,
	}, nil
}

func newValidateCmd() *cobra.Command {
	var fieldPath string
	var masked bool

	cmd := &cobra.Command{
		Use:   "validate <raw-text>",
		Short: "Validate a guided-dialogue answer against a field definition",
		Args:  cobra.ExactArgs(1),
		Example: `  dialogcore validate "我的電話是0912345678" --field phone.yaml
  dialogcore validate "A123456789" --field id.yaml --masked`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(fieldPath)
			if err != nil {
				return fmt.Errorf("read field definition: %w", err)
			}

			var spec fieldSpec
			if err := yaml.Unmarshal(data, &spec); err != nil {
				return fmt.Errorf("parse field definition: %w", err)
			}
			def, err := spec.definition()
			if err != nil {
				return fmt.Errorf("invalid field definition: %w", err)
			}

			validator := forms.NewValidator(forms.WithLogger(newLogger()))
			result := validator.Validate(cmd.Context(), def, args[0])
			if masked && result.Valid {
				result.Value = forms.Mask(def.Name, result.Value)
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&fieldPath, "field", "", "path to a YAML field definition")
	cmd.Flags().BoolVar(&masked, "masked", false, "mask the extracted value for display")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}
