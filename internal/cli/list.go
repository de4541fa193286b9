package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garnizeh/staffdir/pkg/models"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staff records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.Store.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			return writeTable(cmd.OutOrStdout(), recs, a.Store.PhotoStatus)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "only records containing this text")
	return cmd
}

func writeTable(w io.Writer, recs []models.Staff, photoStatus func(*models.Staff) string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOSITION\tSCHOOL\tCONTACT\tPHOTO")
	for i := range recs {
		r := &recs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.FullName, r.Position, r.SchoolAffiliation, r.ContactNumber, photoStatus(r))
	}
	return tw.Flush()
}
