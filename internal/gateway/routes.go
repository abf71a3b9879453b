package gateway

import (
	"net/http"

	"bagel-gateway-sol/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

// RegisterRoutes 挂载全部 HTTP 路由
func RegisterRoutes(server *rest.Server, ctx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/balance/:identity",
			Handler: BalanceHandler(ctx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/vault",
			Handler: VaultHandler(ctx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/businesses",
			Handler: BusinessesHandler(ctx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/api/v1/businesses/:entryIndex/employees",
			Handler: EmployeesHandler(ctx),
		},
	})
}
