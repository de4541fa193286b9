package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	dbfs "github.com/garnizeh/staffdir/db"
	"github.com/garnizeh/staffdir/internal/db"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.DatabasePath + ".bak"
			}
			if err := copyFile(cfg.DatabasePath, output); err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database backed up to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "backup file (default <database>.bak)")
	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		input string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the database file with a backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if input == "" {
				input = cfg.DatabasePath + ".bak"
			}
			if _, err := os.Stat(cfg.DatabasePath); err == nil && !force {
				return fmt.Errorf("restore: %s exists, pass --force to replace it", cfg.DatabasePath)
			}
			if err := checkBackup(cmd.Context(), input); err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			if err := copyFile(input, cfg.DatabasePath); err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			added, err := upgradeRestored(cmd.Context(), cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database restored from %s\n", input)
			if len(added) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "added columns: %s\n", strings.Join(added, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "backup file (default <database>.bak)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing database")
	return cmd
}

// checkBackup inspects the backup through a read-only connection so an
// unusable file is refused before the live database is replaced. The backup
// itself is never modified.
func checkBackup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backup %s not found", path)
	}
	d, err := db.New(ctx, readOnlyDSN(path), nil)
	if err != nil {
		return err
	}
	defer d.Close()
	_, err = db.InspectSchema(ctx, d)
	return err
}

// upgradeRestored runs the schema guard on the restored database.
func upgradeRestored(ctx context.Context, path string) ([]string, error) {
	d, err := db.New(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return db.EnsureSchema(ctx, d, dbfs.Schema)
}

func readOnlyDSN(path string) string {
	return (&url.URL{Scheme: "file", Opaque: path, RawQuery: "mode=ro"}).String()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
