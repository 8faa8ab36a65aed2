package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(readonlyCmd)
	readonlyCmd.AddCommand(readonlySetCmd)
	readonlyCmd.AddCommand(readonlyGetCmd)
	readonlyCmd.AddCommand(readonlyDelCmd)
	readonlyCmd.AddCommand(readonlyKeysCmd)
	readonlyCmd.AddCommand(readonlyClearCmd)
}

var readonlyCmd = &cobra.Command{
	Use:   "readonly",
	Short: "Operate on the shared read-only store",
	Long: `The shared read-only store is readable by every registered identity.
Writes require an admin credential.`,
}

var readonlySetCmd = &cobra.Command{
	Use:   "set <identity> <key> <value>",
	Short: "Write a key in the read-only store (admin only)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.ReadOnlySet(cred, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var readonlyGetCmd = &cobra.Command{
	Use:   "get <identity> <key>",
	Short: "Read a key from the read-only store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		value, ok, err := store.ReadOnlyGet(cred, args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q not set", args[1])
		}
		fmt.Println(value)
		return nil
	},
}

var readonlyDelCmd = &cobra.Command{
	Use:   "del <identity> <key>",
	Short: "Delete a key from the read-only store (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.ReadOnlyDelete(cred, args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var readonlyKeysCmd = &cobra.Command{
	Use:   "keys <identity>",
	Short: "List the keys in the read-only store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		keys, err := store.ReadOnlyKeys(cred)
		if err != nil {
			return err
		}
		return printKeys(keys)
	},
}

var readonlyClearCmd = &cobra.Command{
	Use:   "clear <identity>",
	Short: "Empty the read-only store (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.ReadOnlyClear(cred); err != nil {
			return err
		}
		fmt.Printf("%s read-only store cleared\n", okFmt("✓"))
		return nil
	},
}
