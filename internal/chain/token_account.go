package chain

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"bagel-gateway-sol/internal/confidential"
)

// ConfidentialTokenAccount 推导 identity 在机密 mint 下的关联代币账户地址
func ConfidentialTokenAccount(identity, mint string) (string, error) {
	owner := common.PublicKeyFromString(identity)
	mintKey := common.PublicKeyFromString(mint)
	ata, _, err := common.FindAssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return "", fmt.Errorf("derive token account for %s: %w", identity, err)
	}
	return ata.ToBase58(), nil
}

// NewTokenAccountLookup 构造解析器使用的账户查找函数：
// identity → 关联代币账户地址 + 最新账户字节
func NewTokenAccountLookup(c *Client, mint string) confidential.TokenAccountLookup {
	return func(ctx context.Context, identity string) (string, []byte, error) {
		tokenAccount, err := ConfidentialTokenAccount(identity, mint)
		if err != nil {
			return "", nil, err
		}
		data, err := c.FetchAccount(ctx, tokenAccount)
		if err != nil {
			return "", nil, err
		}
		return tokenAccount, data, nil
	}
}
