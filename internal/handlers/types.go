package handlers

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

// ReceiptResp 交易执行结果
type ReceiptResp struct {
	Signature string   `json:"signature,omitempty"`
	Slot      uint64   `json:"slot"`
	Success   bool     `json:"success"`
	Logs      []string `json:"logs"`
	Changed   []string `json:"changed_accounts"`
	Error     string   `json:"error,omitempty"`
	Code      *uint32  `json:"code,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// AccountResp 账户原始状态，能识别的账户附带解析结果
type AccountResp struct {
	Address    string      `json:"address"`
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	Executable bool        `json:"executable"`
	Data       string      `json:"data"`
	Kind       string      `json:"kind,omitempty"`
	Parsed     interface{} `json:"parsed,omitempty"`
}

// CampaignResp 众筹活动详情
type CampaignResp struct {
	Address         string `json:"address"`
	Bump            uint8  `json:"bump"`
	Owner           string `json:"owner"`
	Mint            string `json:"mint"`
	Decimals        uint8  `json:"decimals"`
	Pool            string `json:"pool"`
	TargetAmount    uint64 `json:"target_amount"`
	CurrentAmount   uint64 `json:"current_amount"`
	TargetUi        string `json:"target_ui"`
	CurrentUi       string `json:"current_ui"`
	Progress        string `json:"progress_percent"`
	PoolBalance     uint64 `json:"pool_balance"`
	PoolBalanceUi   string `json:"pool_balance_ui"`
	MinContribution uint64 `json:"min_contribution"`
	MaxContribution uint64 `json:"max_contribution"`
	CreatedAt       uint64 `json:"created_at"`
	Duration        uint64 `json:"duration"`
	EndsAt          uint64 `json:"ends_at"`
	Status          string `json:"status"`
	CanClaim        bool   `json:"can_claim"`
	CanRefund       bool   `json:"can_refund"`
}

// ContributorResp 出资人记录
type ContributorResp struct {
	Campaign    string `json:"campaign"`
	Contributor string `json:"contributor"`
	Address     string `json:"address"`
	Bump        uint8  `json:"bump"`
	Amount      uint64 `json:"amount"`
	AmountUi    string `json:"amount_ui"`
}

// PDAResp 派生地址
type PDAResp struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

func newPDAResp(r fundraiser.PDAResult) *PDAResp {
	return &PDAResp{Address: r.Address.String(), Bump: r.Bump}
}

func newReceiptResp(r *ledger.Receipt) ReceiptResp {
	resp := ReceiptResp{
		Slot:    r.Slot,
		Success: r.Succeeded(),
		Logs:    r.Logs,
		Changed: make([]string, 0, len(r.Changed)),
	}
	if r.Signature != (solana.Signature{}) {
		resp.Signature = r.Signature.String()
	}
	for _, key := range r.Changed {
		resp.Changed = append(resp.Changed, key.String())
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
		if pe, ok := fundraiser.ErrorCode(r.Err); ok {
			code := pe.Code()
			resp.Code = &code
			resp.Name = pe.Name()
		}
	}
	return resp
}

func newAccountResp(address string, acc ledger.Account) AccountResp {
	return AccountResp{
		Address:    address,
		Lamports:   acc.Lamports,
		Owner:      acc.Owner.String(),
		Executable: acc.Executable,
		Data:       base64.StdEncoding.EncodeToString(acc.Data),
	}
}
