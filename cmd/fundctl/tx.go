package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/spf13/cobra"

	solanautil "crowdfund/pkg/solana"
	"crowdfund/pkg/solana/fundraiser"
	"crowdfund/pkg/utils"
)

func txCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build and sign fundraiser transactions, printed as base64 for POST /transactions",
	}
	cmd.PersistentFlags().String("password", "", "keystore password")
	cmd.PersistentFlags().String("blockhash", "", "recent blockhash from GET /blockhash")
	cmd.PersistentFlags().Uint8("decimals", 0, "mint decimals used to read amounts")
	cmd.AddCommand(txInitializeCommand(), txContributeCommand())
	return cmd
}

func txInitializeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Open the pool and create the owner's campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := programID(cmd)
			if err != nil {
				return err
			}
			mint, err := keyFlag(cmd, "mint")
			if err != nil {
				return err
			}
			target, err := amountFlag(cmd, "target")
			if err != nil {
				return err
			}
			duration, _ := cmd.Flags().GetUint64("duration")
			owner, err := signer(cmd, "owner")
			if err != nil {
				return err
			}

			campaign, err := fundraiser.NewAddressDeriver(id).CampaignPDA(owner.PublicKey())
			if err != nil {
				return err
			}
			pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
			if err != nil {
				return err
			}
			initIx, err := fundraiser.NewInitializeInstruction(id, owner.PublicKey(), mint, pool,
				fundraiser.InitializeArgs{TargetAmount: target, Duration: duration})
			if err != nil {
				return err
			}

			return printSigned(cmd, owner,
				associatedtokenaccount.NewCreateInstruction(owner.PublicKey(), campaign.Address, mint).Build(),
				initIx,
			)
		},
	}
	cmd.Flags().String("owner", "", "owner address in the keystore")
	cmd.Flags().String("mint", "", "mint the campaign raises")
	cmd.Flags().String("target", "", "target amount, in display units")
	cmd.Flags().Uint64("duration", 0, "campaign duration in seconds")
	for _, f := range []string{"owner", "mint", "target"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func txContributeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contribute",
		Short: "Contribute to the owner's campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := programID(cmd)
			if err != nil {
				return err
			}
			owner, err := keyFlag(cmd, "owner")
			if err != nil {
				return err
			}
			mint, err := keyFlag(cmd, "mint")
			if err != nil {
				return err
			}
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}
			contributor, err := signer(cmd, "contributor")
			if err != nil {
				return err
			}

			campaign, err := fundraiser.NewAddressDeriver(id).CampaignPDA(owner)
			if err != nil {
				return err
			}
			pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
			if err != nil {
				return err
			}
			funding, _, err := solana.FindAssociatedTokenAddress(contributor.PublicKey(), mint)
			if err != nil {
				return err
			}
			if raw, _ := cmd.Flags().GetString("funding"); raw != "" {
				if funding, err = keyFlag(cmd, "funding"); err != nil {
					return err
				}
			}

			ix, err := fundraiser.NewContributeInstruction(id, contributor.PublicKey(), owner, mint, pool, funding, amount)
			if err != nil {
				return err
			}
			return printSigned(cmd, contributor, ix)
		},
	}
	cmd.Flags().String("contributor", "", "contributor address in the keystore")
	cmd.Flags().String("owner", "", "campaign owner address")
	cmd.Flags().String("mint", "", "campaign mint")
	cmd.Flags().String("funding", "", "token account to pay from (default: associated token account)")
	cmd.Flags().String("amount", "", "amount, in display units")
	for _, f := range []string{"contributor", "owner", "mint", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func amountFlag(cmd *cobra.Command, name string) (uint64, error) {
	raw, _ := cmd.Flags().GetString(name)
	decimals, _ := cmd.Flags().GetUint8("decimals")
	v, err := utils.ParseUiAmount(raw, decimals)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return v, nil
}

func signer(cmd *cobra.Command, flag string) (solana.PrivateKey, error) {
	pw, err := password(cmd)
	if err != nil {
		return nil, err
	}
	address, _ := cmd.Flags().GetString(flag)
	return keyManager(cmd).LoadSigner(address, pw)
}

func printSigned(cmd *cobra.Command, payer solana.PrivateKey, ixs ...solana.Instruction) error {
	var blockhash solana.Hash
	if raw, _ := cmd.Flags().GetString("blockhash"); raw != "" {
		h, err := solana.HashFromBase58(raw)
		if err != nil {
			return fmt.Errorf("invalid --blockhash: %w", err)
		}
		blockhash = h
	}

	tx, err := solanautil.SignTransaction(ixs, blockhash, payer)
	if err != nil {
		return err
	}
	encoded, err := solanautil.EncodeTransaction(tx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return nil
}
