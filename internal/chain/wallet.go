package chain

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"

	"bagel-gateway-sol/internal/pkg/logger"
	pkgutils "bagel-gateway-sol/pkg/utils"
)

// WalletConf 钱包配置。secret_key 建议通过环境变量注入
type WalletConf struct {
	SecretKey string `yaml:"secret_key"` // base58 编码私钥
}

// Wallet 本地 ed25519 钱包，提供解密挑战的签名回调。
// identity 即 base58 公钥，是所有缓存的分区键
type Wallet struct {
	account types.Account
}

func NewWallet(conf WalletConf) (*Wallet, error) {
	if conf.SecretKey == "" {
		return nil, fmt.Errorf("wallet secret_key is empty")
	}
	account, err := types.AccountFromBase58(conf.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("parse wallet secret key: %w", err)
	}
	return &Wallet{account: account}, nil
}

// Identity 返回 base58 公钥
func (w *Wallet) Identity() string {
	return w.account.PublicKey.ToBase58()
}

// SignMessage 对消息签名。本地密钥不会失败弹窗，
// 但签名仍会进签名缓存，避免重复跑挑战流程
func (w *Wallet) SignMessage(_ context.Context, msg []byte) ([]byte, error) {
	sig := ed25519.Sign(w.account.PrivateKey, msg)
	logger.Debugf("signed decrypt challenge: identity=%s, sig=%s",
		w.Identity(), pkgutils.SignatureToString(sig))
	return sig, nil
}
