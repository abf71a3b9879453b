package confidential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bagel-gateway-sol/internal/pkg/logger"
)

// DefaultPropagationWait allowance 授权在解密服务侧生效的固定等待时间。
// 外部系统没有任何可观测的完成信号，只能等满固定间隔，无法轮询
const DefaultPropagationWait = 5 * time.Second

type allowanceRequest struct {
	TokenAccount string `json:"tokenAccount"`
	OwnerAddress string `json:"ownerAddress"`
}

type allowanceResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Txid    string `json:"txid,omitempty"`
}

// AllowanceClient 调用 allowance 服务，为 (tokenAccount, owner) 授予解密权限。
// 单次调用不做内部重试：失败对当前解密流程是致命的，
// 上层的解密重试循环下一轮会重新发起
type AllowanceClient struct {
	endpoint string
	hc       *http.Client
}

func NewAllowanceClient(endpoint string, timeout time.Duration) *AllowanceClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AllowanceClient{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
	}
}

// SetupAllowance 发起授权。非 success 响应或网络错误都包装为 AllowanceError。
// 成功后调用方必须等满传播间隔才能发起解密（见 Resolver）
func (c *AllowanceClient) SetupAllowance(ctx context.Context, tokenAccount, ownerAddress string) error {
	payload, err := json.Marshal(allowanceRequest{
		TokenAccount: tokenAccount,
		OwnerAddress: ownerAddress,
	})
	if err != nil {
		return &AllowanceError{Msg: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return &AllowanceError{Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &AllowanceError{Msg: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AllowanceError{Msg: err.Error()}
	}

	var ar allowanceResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return &AllowanceError{Msg: fmt.Sprintf("bad response (%d): %v", resp.StatusCode, err)}
	}
	if !ar.Success {
		msg := ar.Error
		if msg == "" {
			msg = fmt.Sprintf("server returned failure (status %d)", resp.StatusCode)
		}
		return &AllowanceError{Msg: msg}
	}

	logger.Infof("allowance granted: account=%s, owner=%s, txid=%s", tokenAccount, ownerAddress, ar.Txid)
	return nil
}
