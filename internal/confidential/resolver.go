package confidential

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/pkg/utils"
)

const (
	// DefaultMaxRetries 解密重试上限；余额展示主路径用 PrimaryMaxRetries
	DefaultMaxRetries = 3
	PrimaryMaxRetries = 5

	// DefaultBaseDelay 第 k 次重试前等待 baseDelay * 2^(k-1)：2s、4s、8s …
	DefaultBaseDelay = 2 * time.Second
)

// TokenAccountLookup 解析 identity 对应的机密代币账户并拉取其最新字节。
// 由 chain 包提供实现，测试注入假数据
type TokenAccountLookup func(ctx context.Context, identity string) (tokenAccount string, accountData []byte, err error)

// SleepFunc 可注入的延迟函数，ctx 取消时应立即返回错误
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BalanceResult ResolveBalance 的结果
type BalanceResult struct {
	Exists    bool    // false 表示链上尚无加密余额（handle 为零）
	Amount    float64 // 展示金额 = Raw / 10^decimals
	Raw       string  // 最小单位的十进制整数明文
	Handle    string  // 本次解析对应的 handle（十进制）
	FromCache bool    // 是否命中余额缓存（未发生解密）
}

// ResolverConf Resolver 行为参数，零值字段取默认
type ResolverConf struct {
	MaxRetries      int           // 解密尝试次数上限
	BaseDelay       time.Duration // 指数退避基数
	PropagationWait time.Duration // allowance 生效等待
	Decimals        uint32        // 代币精度（观测系统为 9）
}

// Resolver 端到端驱动机密余额解析：
// 取链上 handle → 余额缓存比对 → allowance → 固定等待 → 带退避的解密重试。
// 同一 (handle, identity) 的并发请求用 singleflight 合并，
// 防止两个 UI 同时轮询导致重复弹窗。
type Resolver struct {
	lookup    TokenAccountLookup
	balances  *BalanceCache
	sigs      *SignatureCache
	allowance *AllowanceClient
	dec       Decrypter
	sign      SignFunc // 真实钱包签名回调

	maxRetries int
	baseDelay  time.Duration
	propWait   time.Duration
	decimals   uint32

	sleep  SleepFunc
	flight singleflight.Group
}

func NewResolver(
	lookup TokenAccountLookup,
	balances *BalanceCache,
	sigs *SignatureCache,
	allowance *AllowanceClient,
	dec Decrypter,
	sign SignFunc,
	conf ResolverConf,
) *Resolver {
	if conf.MaxRetries <= 0 {
		conf.MaxRetries = DefaultMaxRetries
	}
	if conf.BaseDelay <= 0 {
		conf.BaseDelay = DefaultBaseDelay
	}
	if conf.PropagationWait <= 0 {
		conf.PropagationWait = DefaultPropagationWait
	}
	if conf.Decimals == 0 {
		conf.Decimals = 9
	}
	return &Resolver{
		lookup:     lookup,
		balances:   balances,
		sigs:       sigs,
		allowance:  allowance,
		dec:        dec,
		sign:       sign,
		maxRetries: conf.MaxRetries,
		baseDelay:  conf.BaseDelay,
		propWait:   conf.PropagationWait,
		decimals:   conf.Decimals,
		sleep:      defaultSleep,
	}
}

// SetSleep 替换延迟实现，仅供测试
func (r *Resolver) SetSleep(s SleepFunc) {
	r.sleep = s
}

// ResolveBalance 解析 identity 当前的机密余额明文。
// handle 未变时直接返回缓存金额，除账户读取外零网络调用、零签名；
// 失败路径绝不写余额缓存。
func (r *Resolver) ResolveBalance(ctx context.Context, identity string) (*BalanceResult, error) {
	begin := time.Now()
	defer func() {
		metricResolveDuration.Observe(time.Since(begin).Seconds())
	}()

	// 1. 拉取账户字节并提取当前 handle
	tokenAccount, accountData, err := r.lookup(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("fetch token account: %w", err)
	}
	current, err := ExtractHandle(accountData)
	if err != nil {
		return nil, err
	}
	if current.IsZero() {
		// 尚未初始化加密余额，合法终态
		return &BalanceResult{Exists: false}, nil
	}

	// 2. handle 未变 → 缓存金额仍然有效，到此为止。
	// 这是主路径：避免让用户重新授权一次结果完全相同的解密
	if cachedHandle, amount, ok := r.balances.Get(ctx, identity); ok && cachedHandle == current {
		metricCacheHits.Inc()
		return &BalanceResult{
			Exists:    true,
			Amount:    amount,
			Handle:    current.String(),
			FromCache: true,
		}, nil
	}

	// 3. handle 变了（或无缓存）：合并同 (handle, identity) 的并发解密
	key := sigKey(current, identity)
	v, err, _ := r.flight.Do(key, func() (any, error) {
		return r.decryptAndPersist(ctx, identity, tokenAccount, current)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BalanceResult), nil
}

func (r *Resolver) decryptAndPersist(ctx context.Context, identity, tokenAccount string, current Handle) (*BalanceResult, error) {
	// allowance 失败对本次解析是致命的，不在此层重试
	if err := r.allowance.SetupAllowance(ctx, tokenAccount, identity); err != nil {
		return nil, err
	}
	// 授权传播没有完成信号，只能等满固定间隔
	if err := r.sleep(ctx, r.propWait); err != nil {
		return nil, err
	}

	raw, err := r.decryptWithRetry(ctx, identity, current)
	if err != nil {
		return nil, err
	}

	amount := scaleAmount(raw, r.decimals)

	// 成功后恰好一次缓存写入。写失败只记日志：
	// 明文已拿到，缓存故障最多让下次多解一遍
	if err := r.balances.Set(ctx, identity, current, amount); err != nil {
		logger.Warnf("balance cache write failed: identity=%s, err=%v", identity, err)
	}

	return &BalanceResult{
		Exists: true,
		Amount: amount,
		Raw:    raw,
		Handle: current.String(),
	}, nil
}

// decryptWithRetry 指数退避的解密重试。第 0 次立即执行，
// 第 k 次前等待 baseDelay * 2^(k-1)。终止性错误立刻中断，
// 其余按临时故障重试，耗尽后上抛最后一个错误
func (r *Resolver) decryptWithRetry(ctx context.Context, identity string, h Handle) (string, error) {
	signer := r.signerFor(h, identity)
	handles := []string{h.String()}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			logger.Warnf("retrying decrypt (attempt=%d, delay=%s): %v", attempt+1, delay, lastErr)
			if err := r.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		metricDecryptAttempts.Inc()
		plaintexts, err := r.dec.Decrypt(ctx, handles, identity, signer)
		if err == nil {
			if len(plaintexts) == 0 {
				return "", fmt.Errorf("decrypt returned no plaintexts")
			}
			return plaintexts[0], nil
		}

		if IsTerminal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("decrypt failed after %d attempts: %w", r.maxRetries, lastErr)
}

// signerFor 包装签名缓存：同一 (handle, identity) 在 TTL 窗口内
// 最多触发一次真实钱包签名，重试全部复用缓存签名
func (r *Resolver) signerFor(h Handle, identity string) SignFunc {
	return func(ctx context.Context, msg []byte) ([]byte, error) {
		if sig, ok := r.sigs.Get(h, identity); ok {
			return sig, nil
		}

		metricWalletPrompts.Inc()
		sig, err := r.sign(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		r.sigs.Put(h, identity, sig)
		return sig, nil
	}
}

// scaleAmount 把最小单位明文换算成展示金额
func scaleAmount(raw string, decimals uint32) float64 {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		// 超出 u64 的极端余额走浮点解析，展示层够用
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			logger.Warnf("bad plaintext amount %q: %v", raw, err)
			return 0
		}
		return f / utils.Pow10(decimals)
	}
	return float64(v) / utils.Pow10(decimals)
}
