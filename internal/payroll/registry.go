package payroll

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/hashicorp/golang-lru"

	"bagel-gateway-sol/internal/chain"
	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/pkg/utils"
	pkgutils "bagel-gateway-sol/pkg/utils"
)

const decodeWorkers = 8

// Registry 链上工资单注册表的只读视图。
// 业务/员工条目是索引型 PDA，按 next_*_index 顺序推导地址后批量拉取
type Registry struct {
	client      *chain.Client
	programID   common.PublicKey
	vault       common.PublicKey
	base58Cache *lru.Cache
}

func NewRegistry(client *chain.Client, conf chain.ChainConf) *Registry {
	return &Registry{
		client:      client,
		programID:   common.PublicKeyFromString(conf.ProgramID),
		vault:       common.PublicKeyFromString(conf.MasterVault),
		base58Cache: utils.NewBase58Cache(),
	}
}

// MasterVault 拉取并解码金库主账户
func (r *Registry) MasterVault(ctx context.Context) (*chain.MasterVault, error) {
	data, err := r.client.FetchAccount(ctx, r.vault.ToBase58())
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("master vault %s not found", r.vault.ToBase58())
	}
	return chain.DecodeMasterVault(data, r.base58Cache)
}

// Businesses 列出全部业务条目。已关闭的条目（账户不存在）跳过
func (r *Registry) Businesses(ctx context.Context) ([]*chain.BusinessEntry, error) {
	vault, err := r.MasterVault(ctx)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, vault.NextBusinessIndex)
	for i := uint64(0); i < vault.NextBusinessIndex; i++ {
		addr, err := r.businessPDA(i)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}

	datas, err := r.client.FetchAccounts(ctx, addrs)
	if err != nil {
		return nil, err
	}
	return decodeAll(datas, r.base58Cache, chain.DecodeBusinessEntry), nil
}

// Employees 列出某业务条目下的全部员工条目
func (r *Registry) Employees(ctx context.Context, entryIndex uint64) ([]*chain.EmployeeEntry, error) {
	entryAddr, err := r.businessPDA(entryIndex)
	if err != nil {
		return nil, err
	}
	data, err := r.client.FetchAccount(ctx, entryAddr)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("business entry %d not found", entryIndex)
	}
	entry, err := chain.DecodeBusinessEntry(data, r.base58Cache)
	if err != nil {
		return nil, err
	}

	entryKey := common.PublicKeyFromString(entryAddr)
	addrs := make([]string, 0, entry.NextEmployeeIndex)
	for i := uint64(0); i < entry.NextEmployeeIndex; i++ {
		addr, err := r.employeePDA(entryKey, i)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}

	datas, err := r.client.FetchAccounts(ctx, addrs)
	if err != nil {
		return nil, err
	}
	return decodeAll(datas, r.base58Cache, chain.DecodeEmployeeEntry), nil
}

// decodeAll 并行解码账户字节，nil/损坏数据跳过并记日志
func decodeAll[T any](datas [][]byte, cache *lru.Cache, decode func([]byte, *lru.Cache) (*T, error)) []*T {
	decoded := pkgutils.ParallelMap(datas, decodeWorkers,
		func() *lru.Cache { return cache },
		func(c *lru.Cache, data []byte) *T {
			if len(data) == 0 {
				return nil // 条目已关闭
			}
			entry, err := decode(data, c)
			if err != nil {
				logger.Warnf("skip undecodable registry entry: %v", err)
				return nil
			}
			return entry
		})

	result := make([]*T, 0, len(decoded))
	for _, e := range decoded {
		if e != nil {
			result = append(result, e)
		}
	}
	return result
}

func (r *Registry) businessPDA(index uint64) (string, error) {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], index)
	pda, _, err := common.FindProgramAddress(
		[][]byte{[]byte("entry"), r.vault.Bytes(), le[:]}, r.programID)
	if err != nil {
		return "", fmt.Errorf("derive business pda %d: %w", index, err)
	}
	return pda.ToBase58(), nil
}

func (r *Registry) employeePDA(entry common.PublicKey, index uint64) (string, error) {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], index)
	pda, _, err := common.FindProgramAddress(
		[][]byte{[]byte("employee"), entry.Bytes(), le[:]}, r.programID)
	if err != nil {
		return "", fmt.Errorf("derive employee pda %d: %w", index, err)
	}
	return pda.ToBase58(), nil
}
