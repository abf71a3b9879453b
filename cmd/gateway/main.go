package main

import (
	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/config"
	"bagel-gateway-sol/internal/gateway"
	"bagel-gateway-sol/internal/payroll"
	"bagel-gateway-sol/internal/pkg/configloader"
	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/pkg/monitor"
	"bagel-gateway-sol/internal/svc"
	"flag"
	"fmt"
	"runtime/debug"

	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/gateway.yaml", "the config file")

func main() {
	// 捕获 panic，打印堆栈信息
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()
	defer logger.Sync()

	flag.Parse()
	logger.Infof("Loading config from %s", *configFile)

	// ========== 1. 加载配置 ==========
	var c config.GatewayConfig
	if err := configloader.LoadConfig(*configFile, &c); err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}

	// ========== 2. 初始化日志 ==========
	logger.InitLogger(c.LogConf.ToLogOption())
	logx.SetWriter(logger.ZapWriter{})

	// ========== 3. 初始化上下文 ==========
	registry := payroll.NewRegistry(chain.NewClient(c.Chain.Endpoint), c.Chain)
	svcCtx, err := svc.NewServiceContext(&c, registry)
	if err != nil {
		panic(fmt.Sprintf("初始化上下文失败: %v", err))
	}

	// ========== 4. 构建服务组 ==========
	sg := zerosvc.NewServiceGroup()

	// 添加 Prometheus + pprof 监控服务（可选）
	if c.Monitor.Port > 0 {
		monitorServer := monitor.NewMonitorServer(c.Monitor.Port)
		sg.Add(monitorServer)
	}

	// ========== 5. 构建并注册 HTTP 服务 ==========
	restServer := rest.MustNewServer(c.Rest.ToRestConf("bagel-gateway"))
	gateway.RegisterRoutes(restServer, svcCtx)
	sg.Add(restServer)

	// ========== 6. 注册到 Nacos ==========
	if err := svcCtx.RegisterNacos(); err != nil {
		panic(fmt.Sprintf("注册 Nacos 失败: %v", err))
	}
	defer svcCtx.DeregisterNacos()

	// ========== 7. 启动服务 ==========
	logger.Infof("服务启动成功，HTTP监听: %s，Nacos服务名: %s", c.Rest.ListenOn(), c.Nacos.ServiceName)
	sg.Start()
}
