package gateway

import (
	"net/http"

	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/svc"

	"github.com/zeromicro/go-zero/rest/httpx"
)

const (
	errCodeRegistryFetch = 2101
)

// VaultHandler 返回主金库的公开字段
func VaultHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mv, err := ctx.Registry.MasterVault(r.Context())
		if err != nil {
			logger.Errorf("[gateway] fetch master vault failed: %v", err)
			writeError(w, http.StatusBadGateway, errCodeRegistryFetch, err.Error())
			return
		}

		httpx.OkJson(w, &VaultResp{
			Authority:         mv.Authority,
			TotalBalance:      mv.TotalBalance,
			NextBusinessIndex: mv.NextBusinessIndex,
			IsActive:          mv.IsActive,
			ConfidentialMint:  mv.ConfidentialMint,
		})
	}
}

// BusinessesHandler 列出金库下全部企业条目
func BusinessesHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := ctx.Registry.Businesses(r.Context())
		if err != nil {
			logger.Errorf("[gateway] list businesses failed: %v", err)
			writeError(w, http.StatusBadGateway, errCodeRegistryFetch, err.Error())
			return
		}

		resp := &BusinessListResp{Businesses: make([]BusinessResp, 0, len(entries))}
		for _, e := range entries {
			resp.Businesses = append(resp.Businesses, BusinessResp{
				EntryIndex:        e.EntryIndex,
				NextEmployeeIndex: e.NextEmployeeIndex,
				IsActive:          e.IsActive,
				BalanceHandle:     e.EncryptedBalance.String(),
			})
		}
		httpx.OkJson(w, resp)
	}
}

// EmployeesHandler 列出指定企业条目下的员工条目
func EmployeesHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmployeesPathReq
		if err := httpx.Parse(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, errCodeInvalidParam, "entryIndex is required")
			return
		}

		entries, err := ctx.Registry.Employees(r.Context(), req.EntryIndex)
		if err != nil {
			logger.Errorf("[gateway] list employees failed, entryIndex=%d err=%v", req.EntryIndex, err)
			writeError(w, http.StatusBadGateway, errCodeRegistryFetch, err.Error())
			return
		}

		resp := &EmployeeListResp{Employees: make([]EmployeeResp, 0, len(entries))}
		for _, e := range entries {
			resp.Employees = append(resp.Employees, EmployeeResp{
				EmployeeIndex: e.EmployeeIndex,
				LastAction:    e.LastAction,
				IsActive:      e.IsActive,
				SalaryHandle:  e.EncryptedSalary.String(),
				AccruedHandle: e.EncryptedAccrued.String(),
			})
		}
		httpx.OkJson(w, resp)
	}
}
