package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gobeyondidentity/scopedkv/pkg/manifest"
)

var (
	manifestKeyPath string
	manifestPubPath string
	manifestIssuer  string
	manifestTTL     time.Duration
)

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestKeygenCmd)
	manifestCmd.AddCommand(manifestIssueCmd)
	manifestCmd.AddCommand(manifestVerifyCmd)

	manifestCmd.PersistentFlags().StringVar(&manifestIssuer, "issuer", "kvctl", "Manifest issuer name")

	manifestKeygenCmd.Flags().StringVar(&manifestKeyPath, "key", "manifest.key", "Signing key output path")
	manifestKeygenCmd.Flags().StringVar(&manifestPubPath, "pub", "manifest.pub", "Verification key output path")

	manifestIssueCmd.Flags().StringVar(&manifestKeyPath, "key", "manifest.key", "Signing key path")
	manifestIssueCmd.Flags().DurationVar(&manifestTTL, "ttl", time.Hour, "Manifest validity window")

	manifestVerifyCmd.Flags().StringVar(&manifestPubPath, "pub", "manifest.pub", "Verification key path")
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Issue and verify signed identity manifests",
	Long: `Manifests are short-lived Ed25519 tokens binding a canonical identity
to a trusted issuer. A build or deployment step issues them; the embedding
application verifies them and registers the recovered identity.`,
}

var manifestKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a manifest signing key pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := manifest.GenerateKey()
		if err != nil {
			return err
		}
		if err := manifest.SaveKey(manifestKeyPath, priv); err != nil {
			return err
		}
		if err := manifest.SavePublicKey(manifestPubPath, pub); err != nil {
			return err
		}
		fmt.Printf("%s signing key      %s\n", okFmt("✓"), manifestKeyPath)
		fmt.Printf("%s verification key %s\n", okFmt("✓"), manifestPubPath)
		return nil
	},
}

var manifestIssueCmd = &cobra.Command{
	Use:   "issue <identity>",
	Short: "Sign a manifest for an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := manifest.LoadKey(manifestKeyPath)
		if err != nil {
			return err
		}
		token, err := manifest.NewSigner(key, manifestIssuer, manifestTTL).Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var manifestVerifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify a manifest and print the identity it carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := manifest.LoadPublicKey(manifestPubPath)
		if err != nil {
			return err
		}
		identity, err := manifest.NewVerifier(key, manifestIssuer).Verify(args[0])
		if err != nil {
			return err
		}
		fmt.Println(identity)
		return nil
	},
}
