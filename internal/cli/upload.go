package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/civickb/internal/service"
	"github.com/spf13/cobra"
)

var (
	uploadDir    string
	uploadCorpus string
	uploadNoLink bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload rendered documents to the knowledge store",
	Long: `Validate the corpus, then upload every rendered document to the
knowledge store. Upload is refused when validation fails.

Documents that still fail after retries are reported and skipped. The
IDs of the uploaded files are saved to .knowledge-base-ids and, when an
assistant ID is stored in .assistant-id, linked to the assistant.

Examples:
  civickb upload
  civickb upload --dir kb/ --corpus corpus.json
  civickb upload --no-link`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadDir, "dir", "d", "", "documents directory (default: $CIVICKB_KB_DIR)")
	uploadCmd.Flags().StringVar(&uploadCorpus, "corpus", "", "corpus file (default: $CIVICKB_CORPUS_FILE)")
	uploadCmd.Flags().BoolVar(&uploadNoLink, "no-link", false, "do not link the assistant after uploading")
}

func runUpload(cmd *cobra.Command, args []string) error {
	dir := orDefault(uploadDir, cfg.KBDir)
	report, err := validateCorpus(orDefault(uploadCorpus, cfg.CorpusFile), dir)
	if err != nil {
		return err
	}
	if err := report.Err(); err != nil {
		return fmt.Errorf("upload refused: %w", err)
	}

	svc := newPublishService()
	var res *service.UploadResult
	err = runWithProgress(cmd.Context(), "Upload", func(ctx context.Context, progress service.ProgressFunc) error {
		var err error
		res, err = svc.Upload(ctx, dir, report, !uploadNoLink, progress)
		return err
	})
	if res != nil {
		printUpload(res)
	}
	return err
}

func printUpload(res *service.UploadResult) {
	fmt.Printf("\nUploaded %d/%d documents\n", len(res.FileIDs), len(res.Files))
	for _, f := range res.Failed {
		fmt.Printf("  Failed: %s\n", f)
	}
	if res.Linked {
		fmt.Printf("Linked %d files to assistant %s\n", len(res.FileIDs), res.AssistantID)
	}
}
