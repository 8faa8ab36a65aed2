package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/scopedkv/pkg/credential"
)

var auditLimit int

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Maximum entries to show (0 for all)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent credential decisions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := state.AuditEntries(auditLimit)
		if err != nil {
			return err
		}

		if outputFormat != "table" {
			if entries == nil {
				entries = []credential.Entry{}
			}
			return formatOutput(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tIDENTITY\tOP\tDECISION\tLEVEL\tREASON")
		for _, e := range entries {
			decision := okFmt(e.Decision)
			if e.Decision == credential.DecisionDeny {
				decision = errFmt(e.Decision)
			}
			reason := e.Reason
			if reason == "" {
				reason = "-"
			}
			level := e.Level
			if level == "" {
				level = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"), e.Identity, e.Op, decision, level, reason)
		}
		return w.Flush()
	},
}
