package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	pointsLimit int
	pointsJSON  bool
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "List a user's stored points",
	Long:  `Lists the points owned by --user in insertion order, without vectors.`,
	Args:  cobra.NoArgs,
	RunE:  runPoints,
}

func init() {
	pointsCmd.Flags().IntVarP(&pointsLimit, "limit", "n", 100, "maximum number of points")
	pointsCmd.Flags().BoolVar(&pointsJSON, "json", false, "output points as JSON")
	rootCmd.AddCommand(pointsCmd)
}

func runPoints(cmd *cobra.Command, _ []string) error {
	user, err := requireUser()
	if err != nil {
		return err
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	points, err := searchService.ListPoints(commandContext(cmd), user, pointsLimit)
	if err != nil {
		return fmt.Errorf("listing points failed: %w", err)
	}

	if pointsJSON {
		data, err := json.MarshalIndent(points, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal points: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(points) == 0 {
		cmd.Println("No points stored.")
		return nil
	}
	for _, p := range points {
		if p.Payload.Part != nil {
			cmd.Printf("%s  p.%d  %s\n", p.ID, *p.Payload.Part, p.Payload.Text)
			continue
		}
		cmd.Printf("%s  %s\n", p.ID, p.Payload.Text)
	}
	return nil
}
