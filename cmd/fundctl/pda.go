package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"crowdfund/pkg/solana/fundraiser"
)

func pdaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pda",
		Short: "Print the campaign, contributor and pool addresses for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := programID(cmd)
			if err != nil {
				return err
			}
			owner, err := keyFlag(cmd, "owner")
			if err != nil {
				return err
			}

			d := fundraiser.NewAddressDeriver(id)
			campaign, err := d.CampaignPDA(owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "campaign\t%s\t%d\n", campaign.Address, campaign.Bump)

			if raw, _ := cmd.Flags().GetString("contributor"); raw != "" {
				contributor, err := keyFlag(cmd, "contributor")
				if err != nil {
					return err
				}
				record, err := d.ContributorPDA(campaign.Address, contributor)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "contributor\t%s\t%d\n", record.Address, record.Bump)
			}
			if raw, _ := cmd.Flags().GetString("mint"); raw != "" {
				mint, err := keyFlag(cmd, "mint")
				if err != nil {
					return err
				}
				pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pool\t%s\n", pool)
			}
			return nil
		},
	}
	cmd.Flags().String("owner", "", "campaign owner address")
	cmd.Flags().String("contributor", "", "contributor address")
	cmd.Flags().String("mint", "", "campaign mint, to derive the pool")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString(name)
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return key, nil
}
