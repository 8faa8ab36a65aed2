package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <identity>",
	Short: "Show an identity's canonical path and permission ceiling",
	Long: `Resolve canonicalizes an identity token and reports the maximum
access level the current policy grants it. Resolution is pure policy
evaluation; no credential is issued.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canon, err := access.Canonicalize(args[0])
		if err != nil {
			return err
		}
		ceiling, err := manager.Resolver().Resolve(canon)
		if err != nil {
			return err
		}

		if outputFormat != "table" {
			return formatOutput(map[string]string{
				"identity": canon,
				"ceiling":  ceiling.String(),
			})
		}
		fmt.Printf("%s %s\n", canon, okFmt(ceiling.String()))
		return nil
	},
}
