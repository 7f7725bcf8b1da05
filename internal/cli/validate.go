package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimguard/internal/pipeline"
	"github.com/ppiankov/claimguard/internal/validate"
)

var validateFullReport bool

// validateCmd validates a pre-extracted claim file
var validateCmd = &cobra.Command{
	Use:   "validate <claim.json|claim.yaml>",
	Short: "Validate extracted claim fields and print the outcome",
	Long: `Validate runs the personal, policy, incident, vehicle, financial and
fraud checks over a JSON or YAML object of claim fields and prints the
validation outcome as JSON.

An invalid claim is a normal result: the command exits non-zero only when
the file cannot be read or decoded.

Example:
  claimguard validate claim.json
  claimguard validate claim.yaml --report`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateFullReport, "report", false, "print the full claim report including routing")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	fields, err := pipeline.LoadFields(args[0])
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if validateFullReport {
		p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
		report := p.ValidateFields(cmd.Context(), args[0], fields)
		return renderer.EncodeJSON(cmd.OutOrStdout(), report)
	}

	v, err := validate.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("build validator: %w", err)
	}
	return renderer.EncodeJSON(cmd.OutOrStdout(), v.Validate(fields))
}
