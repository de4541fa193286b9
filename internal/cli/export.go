package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garnizeh/staffdir/internal/export"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to an xlsx spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.Store.GetAll(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteXLSX(f, recs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(recs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "staff.xlsx", "spreadsheet to write")
	return cmd
}
