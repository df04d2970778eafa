package cli

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/civickb/internal/state"
	"github.com/spf13/cobra"
)

var linkAssistant string

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Attach the uploaded documents to the assistant",
	Long: `Attach the file IDs in .knowledge-base-ids to the assistant in
.assistant-id. The assistant's model settings are kept; only its
knowledge base is replaced.

Use --assistant to store a new assistant ID before linking.

Examples:
  civickb link
  civickb link --assistant 3f1c9a52-...`,
	Args: cobra.NoArgs,
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringVar(&linkAssistant, "assistant", "", "store this assistant ID before linking")
}

func runLink(cmd *cobra.Command, args []string) error {
	if linkAssistant != "" {
		if err := newStateStore().SetAssistantID(linkAssistant); err != nil {
			return err
		}
	}

	assistantID, fileIDs, err := newPublishService().Link(cmd.Context())
	switch {
	case errors.Is(err, state.ErrNoAssistant):
		return fmt.Errorf("%w: pass --assistant or create %s", err, state.AssistantFile)
	case errors.Is(err, state.ErrNoFileIDs):
		return fmt.Errorf("%w: run 'civickb upload' first", err)
	case err != nil:
		return err
	}

	fmt.Printf("Linked %d files to assistant %s\n", len(fileIDs), assistantID)
	return nil
}
