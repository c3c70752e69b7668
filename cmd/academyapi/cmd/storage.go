package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/wallacemaster800-spec/acameria-academy/internal/storage"
)

var fixMIMEPrefix string

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Object storage maintenance commands",
}

var storageFixMIMECmd = &cobra.Command{
	Use:   "fix-mime",
	Short: "Repair content types of HLS segments in the bucket",
	Long: `Rewrites the Content-Type of every .ts object under the given prefix
to video/mp2t. Uploads tagged with the wrong type break playback in
strict players.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Media.Enabled() {
			return fmt.Errorf("object storage is not configured (set ACADEMY_MEDIA_BUCKET)")
		}

		media, err := storage.NewMedia(cmd.Context(), cfg.Media)
		if err != nil {
			return fmt.Errorf("configure object storage: %w", err)
		}

		fixed, err := media.FixMIMETypes(cmd.Context(), fixMIMEPrefix)
		if err != nil {
			return fmt.Errorf("fix mime types: %w", err)
		}

		log.Printf("Fixed content type on %d segment(s)", fixed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageFixMIMECmd)
	storageFixMIMECmd.Flags().StringVar(&fixMIMEPrefix, "prefix", "", "Only fix objects under this key prefix")
}
