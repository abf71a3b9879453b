package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/config"
	"bagel-gateway-sol/internal/payroll"
	"bagel-gateway-sol/internal/pkg/configloader"
	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/svc"
)

// 调试工具：命令行解析单个身份的机密余额，或打印注册表条目

var configFile = flag.String("f", "etc/gateway.yaml", "the config file")

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		fmt.Printf("用法:\n")
		fmt.Printf("  %s [-f config] balance <identity>   # 解析并解密余额\n", os.Args[0])
		fmt.Printf("  %s [-f config] vault                # 打印金库主账户\n", os.Args[0])
		fmt.Printf("  %s [-f config] businesses           # 列出业务条目\n", os.Args[0])
		os.Exit(1)
	}

	var c config.GatewayConfig
	if err := configloader.LoadConfig(*configFile, &c); err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(c.LogConf.ToLogOption())
	defer logger.Sync()

	registry := payroll.NewRegistry(chain.NewClient(c.Chain.Endpoint), c.Chain)
	svcCtx, err := svc.NewServiceContext(&c, registry)
	if err != nil {
		log.Fatalf("初始化上下文失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch args[0] {
	case "balance":
		if len(args) != 2 {
			log.Fatalf("用法错误：缺少 identity")
		}
		res, err := svcCtx.Resolver.ResolveBalance(ctx, args[1])
		if err != nil {
			log.Fatalf("解析失败: %v", err)
		}
		if !res.Exists {
			fmt.Println("账户尚无机密余额")
			return
		}
		fmt.Printf("handle:    %s\n", res.Handle)
		fmt.Printf("amount:    %v\n", res.Amount)
		fmt.Printf("raw:       %s\n", res.Raw)
		fmt.Printf("fromCache: %v\n", res.FromCache)

	case "vault":
		mv, err := registry.MasterVault(ctx)
		if err != nil {
			log.Fatalf("查询失败: %v", err)
		}
		fmt.Printf("authority:           %s\n", mv.Authority)
		fmt.Printf("total_balance:       %d\n", mv.TotalBalance)
		fmt.Printf("next_business_index: %d\n", mv.NextBusinessIndex)
		fmt.Printf("is_active:           %v\n", mv.IsActive)
		fmt.Printf("confidential_mint:   %s\n", mv.ConfidentialMint)

	case "businesses":
		entries, err := registry.Businesses(ctx)
		if err != nil {
			log.Fatalf("查询失败: %v", err)
		}
		for _, e := range entries {
			fmt.Printf("index=%d active=%v next_employee=%d balance_handle=%s\n",
				e.EntryIndex, e.IsActive, e.NextEmployeeIndex, e.EncryptedBalance.String())
		}

	default:
		log.Fatalf("未知子命令: %s", args[0])
	}
}
