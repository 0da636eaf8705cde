// Package cli provides the adminctl operator commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the adminctl command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Operator tooling for the admin session gateway",
		Long: `adminctl prepares the secrets the gateway reads from its environment:
a bcrypt hash for ADMIN_SECRET_HASH, a random SESSION_SIGNING_KEY and a
TOTP_SECRET with its provisioning QR code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newHashSecretCommand())
	root.AddCommand(newGenSigningKeyCommand())
	root.AddCommand(newTOTPEnrollCommand())
	return root
}
