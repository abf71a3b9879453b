package confidential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecrypter 按脚本失败若干次后成功。每次调用都先请求签名，
// 以此验证签名缓存对重试的去重效果
type fakeDecrypter struct {
	mu       sync.Mutex
	calls    int
	failures int    // 前 failures 次返回临时错误
	result   string // 之后返回的明文
	err      error  // 非空时始终返回该错误

	block chan struct{} // 非空时在签名后阻塞，用于并发合并测试
}

func (d *fakeDecrypter) Decrypt(ctx context.Context, handles []string, address string, sign SignFunc) ([]string, error) {
	d.mu.Lock()
	d.calls++
	calls := d.calls
	d.mu.Unlock()

	if _, err := sign(ctx, []byte("challenge-for-"+handles[0])); err != nil {
		return nil, err
	}
	if d.block != nil {
		<-d.block
	}
	if d.err != nil {
		return nil, d.err
	}
	if calls <= d.failures {
		return nil, errors.New("covalidator timeout")
	}
	return []string{d.result}, nil
}

func (d *fakeDecrypter) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type resolverEnv struct {
	resolver  *Resolver
	store     *memStore
	dec       *fakeDecrypter
	clock     *fakeClock
	allowSrv  *httptest.Server
	allowHits *atomic.Int64

	mu      sync.Mutex
	sleeps  []time.Duration
	prompts atomic.Int64

	lookupData []byte
	lookupErr  error
}

func (e *resolverEnv) recordedSleeps() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]time.Duration, len(e.sleeps))
	copy(out, e.sleeps)
	return out
}

// newResolverEnv 组装全假依赖的 Resolver：瞬时 sleep、可推进时钟、
// 内存余额缓存、计数的 allowance 服务
func newResolverEnv(t *testing.T, dec *fakeDecrypter, conf ResolverConf) *resolverEnv {
	env := &resolverEnv{
		store:     newMemStore(),
		dec:       dec,
		clock:     &fakeClock{now: time.Unix(1700000000, 0)},
		allowHits: &atomic.Int64{},
	}

	env.allowSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.allowHits.Add(1)
		_ = json.NewEncoder(w).Encode(allowanceResponse{Success: true, Txid: "tx1"})
	}))
	t.Cleanup(env.allowSrv.Close)

	lookup := func(ctx context.Context, identity string) (string, []byte, error) {
		return "tokenAcc-" + identity, env.lookupData, env.lookupErr
	}
	sign := func(ctx context.Context, msg []byte) ([]byte, error) {
		env.prompts.Add(1)
		return []byte("wallet-sig"), nil
	}

	env.resolver = NewResolver(
		lookup,
		NewBalanceCache(env.store),
		NewSignatureCacheWithClock(DefaultSignatureTTL, env.clock.Now),
		NewAllowanceClient(env.allowSrv.URL, 5*time.Second),
		dec,
		sign,
		conf,
	)
	env.resolver.SetSleep(func(ctx context.Context, d time.Duration) error {
		env.mu.Lock()
		env.sleeps = append(env.sleeps, d)
		env.mu.Unlock()
		return nil
	})
	return env
}

func TestResolveBalanceZeroHandle(t *testing.T) {
	env := newResolverEnv(t, &fakeDecrypter{}, ResolverConf{})
	env.lookupData = make([]byte, MinAccountLen)

	res, err := env.resolver.ResolveBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, res.Exists)

	// 零 handle 不触发任何授权/解密/签名
	assert.Equal(t, int64(0), env.allowHits.Load())
	assert.Equal(t, 0, env.dec.callCount())
	assert.Equal(t, int64(0), env.prompts.Load())
}

func TestResolveBalanceMalformedAccount(t *testing.T) {
	env := newResolverEnv(t, &fakeDecrypter{}, ResolverConf{})
	env.lookupData = make([]byte, 80)

	_, err := env.resolver.ResolveBalance(context.Background(), "alice")
	var malformed *MalformedAccountDataError
	require.ErrorAs(t, err, &malformed)
}

func TestResolveBalanceFullFlow(t *testing.T) {
	// 端到端：handle=42，前两次解密临时失败，第三次得到 75 枚代币的最小单位明文
	dec := &fakeDecrypter{failures: 2, result: "75000000000"}
	env := newResolverEnv(t, dec, ResolverConf{
		MaxRetries:      PrimaryMaxRetries,
		BaseDelay:       2 * time.Second,
		PropagationWait: 5 * time.Second,
		Decimals:        9,
	})
	env.lookupData = accountWithHandle(42, 0)

	res, err := env.resolver.ResolveBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, 75.0, res.Amount)
	assert.Equal(t, "75000000000", res.Raw)
	assert.Equal(t, "42", res.Handle)
	assert.False(t, res.FromCache)

	// allowance 恰好一次，等待序列 = 固定传播等待 + 指数退避 2s、4s
	assert.Equal(t, int64(1), env.allowHits.Load())
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second, 4 * time.Second},
		env.recordedSleeps())

	// 三次解密尝试只弹一次钱包窗
	assert.Equal(t, 3, dec.callCount())
	assert.Equal(t, int64(1), env.prompts.Load())

	// 成功后结果已落缓存
	h, amount, ok := NewBalanceCache(env.store).Get(context.Background(), "alice")
	require.True(t, ok)
	assert.Equal(t, NewHandle(42, 0), h)
	assert.Equal(t, 75.0, amount)
}

func TestResolveBalanceCacheHit(t *testing.T) {
	env := newResolverEnv(t, &fakeDecrypter{result: "1"}, ResolverConf{})
	env.lookupData = accountWithHandle(42, 0)
	require.NoError(t, NewBalanceCache(env.store).Set(context.Background(), "alice", NewHandle(42, 0), 75.0))

	res, err := env.resolver.ResolveBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 75.0, res.Amount)

	// handle 未变：零授权、零解密、零签名、零等待
	assert.Equal(t, int64(0), env.allowHits.Load())
	assert.Equal(t, 0, env.dec.callCount())
	assert.Equal(t, int64(0), env.prompts.Load())
	assert.Empty(t, env.recordedSleeps())
}

func TestResolveBalanceHandleChangeInvalidatesCache(t *testing.T) {
	dec := &fakeDecrypter{result: "99000000000"}
	env := newResolverEnv(t, dec, ResolverConf{Decimals: 9})
	require.NoError(t, NewBalanceCache(env.store).Set(context.Background(), "alice", NewHandle(42, 0), 75.0))

	// 链上 handle 已变为 99，缓存失效必须走完整解密
	env.lookupData = accountWithHandle(99, 0)

	res, err := env.resolver.ResolveBalance(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 99.0, res.Amount)
	assert.Equal(t, 1, dec.callCount())

	// 缓存被新结果覆盖
	h, amount, ok := NewBalanceCache(env.store).Get(context.Background(), "alice")
	require.True(t, ok)
	assert.Equal(t, NewHandle(99, 0), h)
	assert.Equal(t, 99.0, amount)
}

func TestResolveBalanceEndToEnd(t *testing.T) {
	// 缓存 {42, 100.0}，链上 handle 变为 99：
	// 必须走授权 + 等待 + 重试解密，最终覆盖缓存为 {99, 75.0}
	dec := &fakeDecrypter{failures: 2, result: "75000000000"}
	env := newResolverEnv(t, dec, ResolverConf{
		MaxRetries:      PrimaryMaxRetries,
		BaseDelay:       2 * time.Second,
		PropagationWait: 5 * time.Second,
		Decimals:        9,
	})
	ctx := context.Background()
	require.NoError(t, NewBalanceCache(env.store).Set(ctx, "alice", NewHandle(42, 0), 100.0))
	env.lookupData = accountWithHandle(99, 0)

	res, err := env.resolver.ResolveBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.Amount)
	assert.Equal(t, "99", res.Handle)
	assert.False(t, res.FromCache)

	assert.Equal(t, int64(1), env.allowHits.Load())
	assert.Equal(t, 3, dec.callCount())
	assert.Equal(t, int64(1), env.prompts.Load())
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second, 4 * time.Second},
		env.recordedSleeps())

	h, amount, ok := NewBalanceCache(env.store).Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, NewHandle(99, 0), h)
	assert.Equal(t, 75.0, amount)

	// handle 不再变化时后续调用全部走缓存
	res, err = env.resolver.ResolveBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 3, dec.callCount())
}

func TestResolveBalanceTerminalErrorAborts(t *testing.T) {
	dec := &fakeDecrypter{err: ErrUserRejected}
	env := newResolverEnv(t, dec, ResolverConf{MaxRetries: 5})
	env.lookupData = accountWithHandle(42, 0)

	_, err := env.resolver.ResolveBalance(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrUserRejected)

	// 用户拒签立即终止，不重试
	assert.Equal(t, 1, dec.callCount())

	// 失败路径绝不写余额缓存
	_, _, ok := NewBalanceCache(env.store).Get(context.Background(), "alice")
	assert.False(t, ok)
}

func TestResolveBalanceRetryExhaustion(t *testing.T) {
	dec := &fakeDecrypter{failures: 100}
	env := newResolverEnv(t, dec, ResolverConf{
		MaxRetries:      3,
		BaseDelay:       2 * time.Second,
		PropagationWait: 5 * time.Second,
	})
	env.lookupData = accountWithHandle(42, 0)

	_, err := env.resolver.ResolveBalance(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Contains(t, err.Error(), "covalidator timeout")

	assert.Equal(t, 3, dec.callCount())
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second, 4 * time.Second},
		env.recordedSleeps())

	_, _, ok := NewBalanceCache(env.store).Get(context.Background(), "alice")
	assert.False(t, ok)
}

func TestResolveBalanceAllowanceFailureIsFatal(t *testing.T) {
	dec := &fakeDecrypter{result: "1"}
	env := newResolverEnv(t, dec, ResolverConf{})
	env.lookupData = accountWithHandle(42, 0)

	env.allowSrv.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(allowanceResponse{Success: false, Error: "vault paused"})
	}))
	t.Cleanup(srv.Close)
	env.resolver.allowance = NewAllowanceClient(srv.URL, 5*time.Second)

	_, err := env.resolver.ResolveBalance(context.Background(), "alice")
	var ae *AllowanceError
	require.ErrorAs(t, err, &ae)

	// allowance 失败后不进入解密阶段
	assert.Equal(t, 0, dec.callCount())
	assert.Empty(t, env.recordedSleeps())
}

func TestResolveBalanceSignatureReusedAcrossResolves(t *testing.T) {
	dec := &fakeDecrypter{result: "1000000000"}
	env := newResolverEnv(t, dec, ResolverConf{Decimals: 9})
	env.lookupData = accountWithHandle(42, 0)

	ctx := context.Background()
	_, err := env.resolver.ResolveBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.prompts.Load())

	// 同 handle 再次解密（清掉余额缓存强制走解密路径）复用缓存签名
	env.store.reset()
	_, err = env.resolver.ResolveBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.prompts.Load())

	// 签名 TTL 过期后才允许再次弹窗
	env.clock.Advance(DefaultSignatureTTL + time.Minute)
	env.store.reset()
	_, err = env.resolver.ResolveBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), env.prompts.Load())
}

func TestResolveBalanceConcurrentRequestsCoalesce(t *testing.T) {
	dec := &fakeDecrypter{result: "5000000000", block: make(chan struct{})}
	env := newResolverEnv(t, dec, ResolverConf{Decimals: 9})
	env.lookupData = accountWithHandle(42, 0)

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]*BalanceResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.resolver.ResolveBalance(ctx, "alice")
		}(i)
	}

	// 等两个请求都到位后放行解密
	time.Sleep(100 * time.Millisecond)
	close(dec.block)
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 5.0, results[i].Amount)
	}

	// 并发请求被合并：一次授权、一次解密、一次弹窗
	assert.Equal(t, 1, dec.callCount())
	assert.Equal(t, int64(1), env.prompts.Load())
	assert.Equal(t, int64(1), env.allowHits.Load())
}

func TestScaleAmount(t *testing.T) {
	assert.Equal(t, 75.0, scaleAmount("75000000000", 9))
	assert.Equal(t, 0.000000001, scaleAmount("1", 9))
	assert.Equal(t, 123.0, scaleAmount("123", 0))
	assert.Equal(t, 0.0, scaleAmount("not-a-number", 9))
}
