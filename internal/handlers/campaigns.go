package handlers

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"crowdfund/pkg/config"
	"crowdfund/pkg/solana/fundraiser"
	"crowdfund/pkg/utils"
)

// GetCampaign returns the campaign derived from the owner address. The pool defaults to
// the campaign's associated token account; ?pool= overrides it.
func GetCampaign(c *gin.Context) {
	owner, ok := parseAddress(c, "owner", c.Param("owner"))
	if !ok {
		return
	}
	pda, err := deriver().CampaignPDA(owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	campaign, ok := loadCampaign(c, pda.Address)
	if !ok {
		return
	}

	pool, err := campaignPool(c, pda.Address, campaign.Mint)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := uint64(config.Ledger.Now().Unix())
	decimals := mintDecimals(campaign.Mint)
	balance := tokenBalance(pool)
	bounds := config.Program.Bounds()

	c.JSON(http.StatusOK, CampaignResp{
		Address:         pda.Address.String(),
		Bump:            campaign.Bump,
		Owner:           campaign.Owner.String(),
		Mint:            campaign.Mint.String(),
		Decimals:        decimals,
		Pool:            pool.String(),
		TargetAmount:    campaign.TargetAmount,
		CurrentAmount:   campaign.CurrentAmount,
		TargetUi:        utils.FormatUiAmount(campaign.TargetAmount, decimals),
		CurrentUi:       utils.FormatUiAmount(campaign.CurrentAmount, decimals),
		Progress:        utils.ProgressPercent(campaign.CurrentAmount, campaign.TargetAmount).String(),
		PoolBalance:     balance,
		PoolBalanceUi:   utils.FormatUiAmount(balance, decimals),
		MinContribution: bounds.MinSendable(campaign.TargetAmount),
		MaxContribution: bounds.MaxSendable(campaign.TargetAmount),
		CreatedAt:       campaign.CreatedAt,
		Duration:        campaign.Duration,
		EndsAt:          campaign.EndsAt(),
		Status:          string(campaign.Status(now)),
		CanClaim:        fundraiser.CanClaim(campaign, now),
		CanRefund:       fundraiser.CanRefund(campaign, now),
	})
}

// GetContributor returns one contributor's record in the owner's campaign.
func GetContributor(c *gin.Context) {
	owner, ok := parseAddress(c, "owner", c.Param("owner"))
	if !ok {
		return
	}
	contributor, ok := parseAddress(c, "contributor", c.Param("contributor"))
	if !ok {
		return
	}

	d := deriver()
	campaignPDA, err := d.CampaignPDA(owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	campaign, ok := loadCampaign(c, campaignPDA.Address)
	if !ok {
		return
	}
	recordPDA, err := d.ContributorPDA(campaignPDA.Address, contributor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	acc, ok := config.Ledger.Account(recordPDA.Address)
	if !ok || !acc.Owner.Equals(config.Program.ID()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contributor not found"})
		return
	}
	record, err := fundraiser.DecodeContributor(acc.Data)
	if err != nil {
		log.WithError(err).WithField("address", recordPDA.Address.String()).Error("unreadable contributor record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ContributorResp{
		Campaign:    campaignPDA.Address.String(),
		Contributor: contributor.String(),
		Address:     recordPDA.Address.String(),
		Bump:        recordPDA.Bump,
		Amount:      record.Amount,
		AmountUi:    utils.FormatUiAmount(record.Amount, mintDecimals(campaign.Mint)),
	})
}

func loadCampaign(c *gin.Context, address solana.PublicKey) (fundraiser.Campaign, bool) {
	acc, ok := config.Ledger.Account(address)
	if !ok || !acc.Owner.Equals(config.Program.ID()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return fundraiser.Campaign{}, false
	}
	campaign, err := fundraiser.DecodeCampaign(acc.Data)
	if err != nil {
		log.WithError(err).WithField("address", address.String()).Error("unreadable campaign record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return fundraiser.Campaign{}, false
	}
	return campaign, true
}

func campaignPool(c *gin.Context, campaign, mint solana.PublicKey) (solana.PublicKey, error) {
	if raw := c.Query("pool"); raw != "" {
		return solana.PublicKeyFromBase58(raw)
	}
	pool, _, err := solana.FindAssociatedTokenAddress(campaign, mint)
	return pool, err
}
