package handlers

import (
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"crowdfund/pkg/config"
	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
	"crowdfund/pkg/solana/program"
)

// GetAccount returns the committed state of any ledger account, decoding the layouts the
// ledger knows about.
func GetAccount(c *gin.Context) {
	address, ok := parseAddress(c, "account", c.Param("address"))
	if !ok {
		return
	}
	acc, ok := config.Ledger.Account(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	resp := newAccountResp(address.String(), acc)
	resp.Kind, resp.Parsed = parseAccount(acc)
	c.JSON(http.StatusOK, resp)
}

func parseAccount(acc ledger.Account) (string, interface{}) {
	switch {
	case acc.Owner.Equals(config.Program.ID()):
		switch len(acc.Data) {
		case fundraiser.CampaignLen:
			if campaign, err := fundraiser.DecodeCampaign(acc.Data); err == nil {
				return "campaign", campaign
			}
		case fundraiser.ContributorLen:
			if record, err := fundraiser.DecodeContributor(acc.Data); err == nil {
				return "contributor", record
			}
		}
	case acc.Owner.Equals(solana.TokenProgramID):
		switch len(acc.Data) {
		case program.TokenAccountLen:
			if ta, err := ledger.TokenAccountState(acc); err == nil {
				return "token_account", gin.H{
					"mint":   ta.Mint.String(),
					"owner":  ta.Owner.String(),
					"amount": ta.Amount,
					"state":  ta.State,
				}
			}
		case program.MintLen:
			if m, err := ledger.MintState(acc); err == nil {
				return "mint", gin.H{
					"mint_authority": m.MintAuthority,
					"supply":         m.Supply,
					"decimals":       m.Decimals,
					"is_initialized": m.IsInitialized,
				}
			}
		}
	}
	return "", nil
}
