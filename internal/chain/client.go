package chain

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/hashicorp/golang-lru"

	"bagel-gateway-sol/internal/pkg/utils"
)

// ChainConf 链访问配置
type ChainConf struct {
	Endpoint         string `yaml:"endpoint"`          // Solana RPC 节点地址
	ProgramID        string `yaml:"program_id"`        // Bagel 主程序地址
	MasterVault      string `yaml:"master_vault"`      // MasterVault 账户地址
	ConfidentialMint string `yaml:"confidential_mint"` // 机密代币 mint 地址
}

// Client 封装 Solana RPC 读访问。只读，不构造交易
type Client struct {
	rpc         *client.Client
	base58Cache *lru.Cache
}

func NewClient(endpoint string) *Client {
	return &Client{
		rpc:         client.NewClient(endpoint),
		base58Cache: utils.NewBase58Cache(),
	}
}

// FetchAccount 拉取单个账户的最新原始字节。账户不存在时 data 为空
func (c *Client) FetchAccount(ctx context.Context, address string) ([]byte, error) {
	info, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", address, err)
	}
	return info.Data, nil
}

// FetchAccounts 批量拉取账户字节，结果与输入顺序一致，
// 不存在的账户对应 nil。每批最多 100 个
func (c *Client) FetchAccounts(ctx context.Context, addresses []string) ([][]byte, error) {
	const batchSize = 100

	result := make([][]byte, 0, len(addresses))
	for start := 0; start < len(addresses); start += batchSize {
		end := start + batchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		batch := addresses[start:end]

		infos, err := c.rpc.GetMultipleAccounts(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("get multiple accounts: %w", err)
		}
		for _, info := range infos {
			result = append(result, info.Data)
		}
	}
	return result, nil
}

// TokenDecimals 从 mint 账户读取代币精度（SPL mint 布局 data[44]）
func (c *Client) TokenDecimals(ctx context.Context, mint string) (uint32, error) {
	info, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("get mint %s: %w", mint, err)
	}
	if len(info.Data) < 45 {
		return 0, fmt.Errorf("mint %s: data too short (%d bytes)", mint, len(info.Data))
	}
	return uint32(info.Data[44]), nil
}
