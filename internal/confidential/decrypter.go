package confidential

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bagel-gateway-sol/internal/pkg/logger"
)

// SignFunc 钱包签名回调。msg 是解密服务下发的挑战字节，
// 同一 handle 的所有尝试收到的 msg 必须一致（缓存签名只对原始字节有效）
type SignFunc func(ctx context.Context, msg []byte) ([]byte, error)

// Decrypter 解密 SDK 的输入输出契约。handles 为十进制字符串编码，
// 返回的明文是代币最小单位的十进制整数字符串，顺序与 handles 一致。
// 线协议细节对调用方不可见
type Decrypter interface {
	Decrypt(ctx context.Context, handles []string, address string, sign SignFunc) ([]string, error)
}

type decryptRequest struct {
	Handles   []string `json:"handles"`
	Address   string   `json:"address"`
	Signature string   `json:"signature,omitempty"` // base64，第二轮携带
}

type decryptResponse struct {
	Plaintexts []string `json:"plaintexts,omitempty"`
	Challenge  string   `json:"challenge,omitempty"` // base64 挑战，需要签名
	Error      string   `json:"error,omitempty"`
}

// HTTPDecrypter 解密服务的 HTTP 客户端实现。
// 流程：POST handles → 服务端返回挑战 → 钱包签名 → 带签名重新 POST → 明文。
// 服务端保证同一 handle 集合的挑战字节确定，签名因此可跨尝试复用
type HTTPDecrypter struct {
	endpoint string
	hc       *http.Client
}

func NewHTTPDecrypter(endpoint string, timeout time.Duration) *HTTPDecrypter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPDecrypter{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDecrypter) Decrypt(ctx context.Context, handles []string, address string, sign SignFunc) ([]string, error) {
	// 第一轮：未带签名，预期拿到挑战（服务端也可能直接放行返回明文）
	resp, err := d.post(ctx, decryptRequest{Handles: handles, Address: address})
	if err != nil {
		return nil, err
	}
	if len(resp.Plaintexts) > 0 {
		return resp.Plaintexts, nil
	}
	if resp.Challenge == "" {
		return nil, fmt.Errorf("decrypt service returned neither plaintexts nor challenge")
	}

	challenge, err := base64.StdEncoding.DecodeString(resp.Challenge)
	if err != nil {
		return nil, fmt.Errorf("bad challenge encoding: %w", err)
	}

	signature, err := sign(ctx, challenge)
	if err != nil {
		return nil, err
	}

	// 第二轮：携带签名换取明文
	resp, err = d.post(ctx, decryptRequest{
		Handles:   handles,
		Address:   address,
		Signature: base64.StdEncoding.EncodeToString(signature),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Plaintexts) != len(handles) {
		return nil, fmt.Errorf("decrypt service returned %d plaintexts for %d handles",
			len(resp.Plaintexts), len(handles))
	}
	return resp.Plaintexts, nil
}

func (d *HTTPDecrypter) post(ctx context.Context, reqBody decryptRequest) (*decryptResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := d.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	var resp decryptResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bad decrypt response (%d): %w", httpResp.StatusCode, err)
	}
	if resp.Error != "" {
		logger.Warnf("decrypt service error: status=%d, err=%s", httpResp.StatusCode, resp.Error)
		return nil, mapDecryptError(resp.Error)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("decrypt service status %d", httpResp.StatusCode)
	}
	return &resp, nil
}

// mapDecryptError 把服务端错误串归一到错误分类上，
// 授权类错误要能被 IsTerminal 识别
func mapDecryptError(msg string) error {
	err := fmt.Errorf("decrypt failed: %s", msg)
	probe := fmt.Errorf("%s", msg)
	if IsTerminal(probe) {
		if containsAuthKeyword(msg) {
			return fmt.Errorf("%w: %s", ErrAuthDenied, msg)
		}
		return fmt.Errorf("%w: %s", ErrUserRejected, msg)
	}
	return err
}

func containsAuthKeyword(msg string) bool {
	for _, kw := range []string{"denied", "authorized", "unauthorized"} {
		if bytes.Contains(bytes.ToLower([]byte(msg)), []byte(kw)) {
			return true
		}
	}
	return false
}
