package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/civickb/internal/metrics"
	"github.com/raphaelgruber/civickb/internal/validate"
	"github.com/spf13/cobra"
)

var validateDir string

var validateCmd = &cobra.Command{
	Use:   "validate [corpus]",
	Short: "Validate the corpus and its rendered documents",
	Long: `Check every record for required and recommended fields, check the
rendered documents for size and structure, and print the report.

Exits with status 1 when the report status is FAIL.

Examples:
  civickb validate
  civickb validate corpus.json --dir kb/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateDir, "dir", "d", "", "documents directory (default: $CIVICKB_KB_DIR)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	corpus := cfg.CorpusFile
	if len(args) == 1 {
		corpus = args[0]
	}
	report, err := validateCorpus(corpus, orDefault(validateDir, cfg.KBDir))
	if err != nil {
		return err
	}
	return report.Err()
}

// validateCorpus runs the validator and prints the full report.
func validateCorpus(corpus, dir string) (*validate.Report, error) {
	var report *validate.Report
	err := collector.Time(metrics.OpValidate, func() error {
		var err error
		report, err = validate.File(corpus, dir)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	report.Print(os.Stdout)
	return report, nil
}
