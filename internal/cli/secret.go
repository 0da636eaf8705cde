package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	pkgauth "github.com/BradenHooton/admingate/pkg/auth"
	"github.com/spf13/cobra"
)

func newHashSecretCommand() *cobra.Command {
	var (
		secret    string
		allowWeak bool
	)

	cmd := &cobra.Command{
		Use:   "hash-secret",
		Short: "Print a bcrypt hash for ADMIN_SECRET_HASH",
		Long: `Hashes the admin secret with bcrypt. The secret is taken from --secret
or, when that is empty, from the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no secret given: pass --secret or pipe it on stdin")
				}
				secret = strings.TrimRight(line, "\r\n")
			}

			if err := pkgauth.ValidateSecretStrength(secret); err != nil && !allowWeak {
				return err
			}

			hash, err := pkgauth.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Secret to hash (read from stdin when empty)")
	cmd.Flags().BoolVar(&allowWeak, "allow-weak", false, "Hash the secret even if it fails the strength check")
	return cmd
}

func newGenSigningKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-signing-key",
		Short: "Print a random SESSION_SIGNING_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := pkgauth.GenerateSigningKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
