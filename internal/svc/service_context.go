package svc

import (
	"context"
	"fmt"

	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"

	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/confidential"
	"bagel-gateway-sol/internal/config"
	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/pkg/utils"
	"bagel-gateway-sol/internal/pkg/xredis"
)

// ServiceContext 依赖注入上下文：链客户端、钱包、缓存、解析器、注册表
type ServiceContext struct {
	Cfg         *config.GatewayConfig
	Chain       *chain.Client
	Wallet      *chain.Wallet
	Resolver    *confidential.Resolver
	Registry    RegistryView
	NacosClient naming_client.INamingClient
}

// RegistryView payroll.Registry 提供的只读视图，便于 handler 测试替换
type RegistryView interface {
	MasterVault(ctx context.Context) (*chain.MasterVault, error)
	Businesses(ctx context.Context) ([]*chain.BusinessEntry, error)
	Employees(ctx context.Context, entryIndex uint64) ([]*chain.EmployeeEntry, error)
}

func NewServiceContext(c *config.GatewayConfig, registry RegistryView) (*ServiceContext, error) {
	// Redis：余额缓存的持久层
	if err := xredis.SetupRedisFromConfigStruct(&c.Redis); err != nil {
		return nil, fmt.Errorf("setup redis: %w", err)
	}

	chainClient := chain.NewClient(c.Chain.Endpoint)

	wallet, err := chain.NewWallet(c.Wallet)
	if err != nil {
		return nil, err
	}

	// 代币精度从 mint 账户读取，读不到时退回观测默认值 9
	decimals, err := chainClient.TokenDecimals(context.Background(), c.Chain.ConfidentialMint)
	if err != nil {
		logger.Warnf("query token decimals failed, fallback to 9: %v", err)
		decimals = 9
	}

	resolver := confidential.NewResolver(
		chain.NewTokenAccountLookup(chainClient, c.Chain.ConfidentialMint),
		confidential.NewBalanceCache(confidential.RedisStore{}),
		confidential.NewSignatureCache(c.Decrypt.SignatureTTL()),
		confidential.NewAllowanceClient(c.Allowance.Endpoint, c.Allowance.Timeout()),
		confidential.NewHTTPDecrypter(c.Decrypt.Endpoint, c.Decrypt.Timeout()),
		wallet.SignMessage,
		confidential.ResolverConf{
			MaxRetries:      c.Decrypt.MaxRetries,
			BaseDelay:       c.Decrypt.BaseDelay(),
			PropagationWait: c.Allowance.PropagationWait(),
			Decimals:        decimals,
		},
	)

	ctx := &ServiceContext{
		Cfg:      c,
		Chain:    chainClient,
		Wallet:   wallet,
		Resolver: resolver,
		Registry: registry,
	}

	if c.Nacos.ServiceName != "" {
		nacosClient, err := NewNacosClient(&c.Nacos)
		if err != nil {
			return nil, err
		}
		ctx.NacosClient = nacosClient
	}
	return ctx, nil
}

// RegisterNacos 注册当前服务实例到 Nacos
func (ctx *ServiceContext) RegisterNacos() error {
	if ctx.NacosClient == nil {
		return nil
	}
	ip, err := utils.GetLocalIP()
	if err != nil {
		return fmt.Errorf("获取本机 IP 失败: %w", err)
	}
	port := uint64(ctx.Cfg.Rest.Port)
	return RegisterNacosInstance(ctx.NacosClient, &ctx.Cfg.Nacos, ip, port)
}

// DeregisterNacos 注销当前服务实例
func (ctx *ServiceContext) DeregisterNacos() error {
	if ctx.NacosClient == nil {
		return nil
	}
	ip, err := utils.GetLocalIP()
	if err != nil {
		return fmt.Errorf("获取本机 IP 失败: %w", err)
	}
	port := uint64(ctx.Cfg.Rest.Port)
	return DeregisterNacosInstance(ctx.NacosClient, &ctx.Cfg.Nacos, ip, port)
}
