package cli

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/civickb/internal/llm"
	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/spf13/cobra"
)

var (
	askDir   string
	askLimit int
	askNoLLM bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Preview answers from the rendered knowledge base",
	Long: `Ask a question against the rendered documents, the way the assistant
would see them.

The documents are split into sections, ranked by how many of the
question's terms they contain, and the best sections are handed to the
configured LLM, which answers from them only. Use --no-llm to print the
retrieved sections instead.

Examples:
  civickb ask "Quali documenti servono per la carta d'identità?"
  civickb ask "orari anagrafe" --no-llm -n 3`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDir, "dir", "d", "", "documents directory (default: $CIVICKB_KB_DIR)")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", service.DefaultPassages, "max sections to retrieve with --no-llm")
	askCmd.Flags().BoolVar(&askNoLLM, "no-llm", false, "print retrieved sections without asking the LLM")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	dir := orDefault(askDir, cfg.KBDir)

	if askNoLLM {
		passages, err := service.NewSearchService(dir, nil).Retrieve(question, askLimit)
		if err != nil {
			return err
		}
		printPassages(passages)
		return nil
	}

	model, err := llm.NewModel(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}
	answer, passages, err := service.NewSearchService(dir, model).Ask(cmd.Context(), question)
	if err != nil {
		return err
	}
	if len(passages) == 0 {
		fmt.Println("No relevant section found for this question.")
		return nil
	}

	fmt.Println(answer)
	fmt.Println("\nSources:")
	for _, p := range passages {
		fmt.Printf("  - %s @ %s\n", p.File, p.HeadingPath)
	}
	return nil
}

func printPassages(passages []service.Passage) {
	if len(passages) == 0 {
		fmt.Println("No relevant section found for this question.")
		return
	}
	for i, p := range passages {
		fmt.Printf("%d. %s @ %s (score %.2f)\n", i+1, p.File, p.HeadingPath, p.Score)
		for line := range strings.Lines(strings.TrimSpace(p.Content)) {
			fmt.Printf("   %s", line)
		}
		fmt.Println()
		fmt.Println()
	}
}
