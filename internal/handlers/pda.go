package handlers

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"crowdfund/pkg/config"
)

// DerivePDA derives the fundraiser addresses a client needs to build transactions.
// owner is required; contributor and mint are optional.
func DerivePDA(c *gin.Context) {
	owner, ok := parseAddress(c, "owner", c.Query("owner"))
	if !ok {
		return
	}

	d := deriver()
	campaign, err := d.CampaignPDA(owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"program_id": config.Program.ID().String(),
		"campaign":   newPDAResp(campaign),
	}

	if raw := c.Query("contributor"); raw != "" {
		contributor, ok := parseAddress(c, "contributor", raw)
		if !ok {
			return
		}
		record, err := d.ContributorPDA(campaign.Address, contributor)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["contributor"] = newPDAResp(record)
	}

	if raw := c.Query("mint"); raw != "" {
		mint, ok := parseAddress(c, "mint", raw)
		if !ok {
			return
		}
		pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["pool"] = pool.String()
	}

	c.JSON(http.StatusOK, resp)
}
