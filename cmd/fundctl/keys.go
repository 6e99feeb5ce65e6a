package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	solanautil "crowdfund/pkg/solana"
)

const passwordEnv = "FUNDCTL_PASSWORD"

func keyManager(cmd *cobra.Command) *solanautil.KeyManager {
	dir, _ := cmd.Flags().GetString("keystore")
	return solanautil.NewKeyManager(dir)
}

func programID(cmd *cobra.Command) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString("program")
	id, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid program id %q: %w", raw, err)
	}
	return id, nil
}

// password prefers the flag and falls back to FUNDCTL_PASSWORD.
func password(cmd *cobra.Command) (string, error) {
	if pw, _ := cmd.Flags().GetString("password"); pw != "" {
		return pw, nil
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	return "", errors.New("a keystore password is required (--password or " + passwordEnv + ")")
}

func keygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and store it encrypted in the keystore",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd)
			if err != nil {
				return err
			}
			km := keyManager(cmd)
			account, err := km.GenerateKeyPair()
			if err != nil {
				return err
			}
			path, err := km.Save(account, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", account.PublicKey.ToBase58(), path)
			return nil
		},
	}
	cmd.Flags().String("password", "", "keystore password")
	return cmd
}

func keysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the addresses in the keystore",
		RunE: func(cmd *cobra.Command, args []string) error {
			addresses, err := keyManager(cmd).List()
			if err != nil {
				return err
			}
			for _, a := range addresses {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
}
