package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(clearCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <identity> <key> <value>",
	Short: "Write a key in the identity's private namespace",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.Set(cred, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <identity> <key>",
	Short: "Read a key from the identity's private namespace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		value, ok, err := store.Get(cred, args[1])
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

var delCmd = &cobra.Command{
	Use:   "del <identity> <key>",
	Short: "Delete a key from the identity's private namespace",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(cred, args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okFmt("✓"), args[1])
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys <identity>",
	Short: "List the keys in the identity's private namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		keys, err := store.Keys(cred)
		if err != nil {
			return err
		}
		return printKeys(keys)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <identity>",
	Short: "Empty the identity's private namespace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cred, err := manager.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := store.Clear(cred); err != nil {
			return err
		}
		fmt.Printf("%s namespace cleared\n", okFmt("✓"))
		return nil
	},
}

func printKeys(keys []string) error {
	if outputFormat != "table" {
		if keys == nil {
			keys = []string{}
		}
		return formatOutput(keys)
	}
	if len(keys) == 0 {
		fmt.Println(dimFmt("(empty)"))
		return nil
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}
