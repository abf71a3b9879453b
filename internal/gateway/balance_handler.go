package gateway

import (
	"errors"
	"net/http"

	"bagel-gateway-sol/internal/confidential"
	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/svc"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// 错误码约定：1xxx 参数类，2xxx 链上/解密类
const (
	errCodeInvalidParam  = 1001
	errCodeNoBalance     = 2001
	errCodeUserRejected  = 2002
	errCodeAuthDenied    = 2003
	errCodeResolveFailed = 2004
)

// BalanceHandler 解析身份地址并走完整的机密余额解析流程。
// 缓存命中时不触发任何钱包交互
func BalanceHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("[gateway] balance handler panic: %v", rec)
				writeError(w, http.StatusInternalServerError, errCodeResolveFailed, "internal error")
			}
		}()

		var req BalancePathReq
		if err := httpx.Parse(r, &req); err != nil || req.Identity == "" {
			writeError(w, http.StatusBadRequest, errCodeInvalidParam, "identity is required")
			return
		}

		res, err := ctx.Resolver.ResolveBalance(r.Context(), req.Identity)
		if err != nil {
			status, code := classifyResolveError(err)
			logger.Errorf("[gateway] resolve balance failed, identity=%s err=%v", req.Identity, err)
			writeError(w, status, code, err.Error())
			return
		}

		httpx.OkJson(w, &BalanceResp{
			Identity:  req.Identity,
			Exists:    res.Exists,
			Amount:    res.Amount,
			Raw:       res.Raw,
			Handle:    res.Handle,
			FromCache: res.FromCache,
		})
	}
}

func classifyResolveError(err error) (status, code int) {
	switch {
	case errors.Is(err, confidential.ErrNoBalance):
		return http.StatusNotFound, errCodeNoBalance
	case errors.Is(err, confidential.ErrUserRejected):
		return http.StatusForbidden, errCodeUserRejected
	case errors.Is(err, confidential.ErrAuthDenied):
		return http.StatusForbidden, errCodeAuthDenied
	default:
		return http.StatusBadGateway, errCodeResolveFailed
	}
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	httpx.WriteJson(w, status, &ErrorBody{Code: code, Msg: msg})
}
