package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce      bool
	dropTournament string
)

// dropCmd deletes the database file, or one tournament from it.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the rankings database or one stored tournament",
	Long: `Permanently delete the SQLite rankings database, or with --tournament only
that tournament and its games. Rating snapshots are not touched by a
tournament drop; re-run 'lolrank rate' afterwards.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropTournament, "tournament", "", "drop only this tournament (id or slug)")
}

func runDrop(cmd *cobra.Command, args []string) error {
	target := dbPath
	if dropTournament != "" {
		target = fmt.Sprintf("tournament %s in %s", dropTournament, dbPath)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropTournament != "" {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.DeleteTournament(dropTournament)
		if err != nil {
			return fmt.Errorf("delete tournament: %w", err)
		}
		if n == 0 {
			fmt.Fprintf(os.Stdout, "No stored tournament %q, nothing to drop.\n", dropTournament)
			return nil
		}
		cOK.Fprintf(os.Stdout, "Deleted %s and its games.\n", dropTournament)
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files; absent after a clean close.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	cOK.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
