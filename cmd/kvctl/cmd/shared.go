package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sharedCmd)
	sharedCmd.AddCommand(sharedSetCmd)
	sharedCmd.AddCommand(sharedGetCmd)
	sharedCmd.AddCommand(sharedDelCmd)
	sharedCmd.AddCommand(sharedKeysCmd)
	sharedCmd.AddCommand(sharedClearCmd)
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "Operate on the shared read-write store",
	Long:  `The shared read-write store is visible to every registered identity.`,
}

var sharedSetCmd = &cobra.Command{
	Use:   "set <identity> <key> <value>",
	Short: "Write a key in the shared store",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.SharedSet(cred, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var sharedGetCmd = &cobra.Command{
	Use:   "get <identity> <key>",
	Short: "Read a key from the shared store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		value, ok, err := store.SharedGet(cred, args[1])
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

var sharedDelCmd = &cobra.Command{
	Use:   "del <identity> <key>",
	Short: "Delete a key from the shared store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.SharedDelete(cred, args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var sharedKeysCmd = &cobra.Command{
	Use:   "keys <identity>",
	Short: "List the keys in the shared store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		keys, err := store.SharedKeys(cred)
		if err != nil {
			return err
		}
		return printKeys(keys)
	},
}

var sharedClearCmd = &cobra.Command{
	Use:   "clear <identity>",
	Short: "Empty the shared store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.SharedClear(cred); err != nil {
			return err
		}
		fmt.Printf("%s shared store cleared\n", okFmt("✓"))
		return nil
	},
}
