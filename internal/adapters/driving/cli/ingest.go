package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

var (
	ingestText string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest text and/or a file for a user",
	Long: `Extracts, chunks, embeds and stores the given text and file as points
owned by --user. Supported files are PDF, DOCX and TXT.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestText, "text", "t", "", "free text to ingest")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	req := domain.IngestRequest{Text: ingestText}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		req.File = &domain.RawDocument{Filename: filepath.Base(args[0]), Content: content}
	}

	result, err := ingestService.Ingest(commandContext(cmd), user, req)
	if err != nil {
		var partial *domain.PartialWriteError
		if errors.As(err, &partial) {
			return fmt.Errorf("ingest incomplete, %d of %d chunks stored: %w", partial.Stored, partial.Total, err)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Saved %d chunk(s) for %s\n", result.ChunksSaved, user)
	return nil
}
