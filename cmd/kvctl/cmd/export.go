package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/scopedkv/pkg/snapshot"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the full store state to a portable snapshot file",
	Long: `Export writes credentials, private namespaces and both shared stores
to a CBOR snapshot file. The file contains namespace contents, so it is
written owner-readable only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := store.Export()
		if err := snapshot.WriteFile(args[0], snap); err != nil {
			return err
		}
		fmt.Printf("%s exported %d identities to %s\n", okFmt("✓"), len(snap.Credentials), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a snapshot file into the store",
	Long: `Import replays a previously exported snapshot. Credentials re-enter
through the manager, so a snapshot credential above its policy ceiling
fails the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := snapshot.ReadFile(args[0])
		if err != nil {
			return err
		}
		if err := store.Restore(snap); err != nil {
			return err
		}
		fmt.Printf("%s imported %d identities from %s\n", okFmt("✓"), len(snap.Credentials), args[0])
		return nil
	},
}
