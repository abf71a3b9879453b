package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/golang-lru"

	"bagel-gateway-sol/internal/confidential"
	"bagel-gateway-sol/internal/pkg/utils"
)

// Bagel 程序账户布局。所有账户前 8 字节为 anchor discriminator，
// Euint128 字段只存 16 字节 handle，密文本体由解密服务托管
const (
	discriminatorLen = 8

	masterVaultLen   = 154
	businessEntryLen = 138
	employeeEntryLen = 138
)

// MasterVault 金库主账户：资金总额公开，业务/员工计数加密
type MasterVault struct {
	Authority         string
	TotalBalance      uint64
	BusinessCount     confidential.Handle // 加密计数 handle
	EmployeeCount     confidential.Handle
	NextBusinessIndex uint64
	IsActive          bool
	ConfidentialMint  string
}

// BusinessEntry 业务条目，PDA seeds: ["entry", master_vault, entry_index]。
// 雇主身份与余额均为加密 handle
type BusinessEntry struct {
	MasterVault       string
	EntryIndex        uint64
	EmployerID        confidential.Handle
	EncryptedBalance  confidential.Handle
	EmployeeCount     confidential.Handle
	NextEmployeeIndex uint64
	IsActive          bool
}

// EmployeeEntry 员工条目，PDA seeds: ["employee", business_entry, employee_index]
type EmployeeEntry struct {
	BusinessEntry    string
	EmployeeIndex    uint64
	EmployeeID       confidential.Handle
	EncryptedSalary  confidential.Handle
	EncryptedAccrued confidential.Handle
	LastAction       int64
	IsActive         bool
}

func DecodeMasterVault(data []byte, cache *lru.Cache) (*MasterVault, error) {
	if len(data) < masterVaultLen {
		return nil, fmt.Errorf("master vault: %d bytes, need %d", len(data), masterVaultLen)
	}
	bc, _ := confidential.DecodeHandleAt(data, 48)
	ec, _ := confidential.DecodeHandleAt(data, 64)
	return &MasterVault{
		Authority:         utils.EncodeBase58Strict(cache, data[8:40]),
		TotalBalance:      binary.LittleEndian.Uint64(data[40:48]),
		BusinessCount:     bc,
		EmployeeCount:     ec,
		NextBusinessIndex: binary.LittleEndian.Uint64(data[80:88]),
		IsActive:          data[88] != 0,
		ConfidentialMint:  utils.EncodeBase58Strict(cache, data[90:122]),
	}, nil
}

func DecodeBusinessEntry(data []byte, cache *lru.Cache) (*BusinessEntry, error) {
	if len(data) < businessEntryLen {
		return nil, fmt.Errorf("business entry: %d bytes, need %d", len(data), businessEntryLen)
	}
	employerID, _ := confidential.DecodeHandleAt(data, 48)
	balance, _ := confidential.DecodeHandleAt(data, 64)
	count, _ := confidential.DecodeHandleAt(data, 80)
	return &BusinessEntry{
		MasterVault:       utils.EncodeBase58Strict(cache, data[8:40]),
		EntryIndex:        binary.LittleEndian.Uint64(data[40:48]),
		EmployerID:        employerID,
		EncryptedBalance:  balance,
		EmployeeCount:     count,
		NextEmployeeIndex: binary.LittleEndian.Uint64(data[96:104]),
		IsActive:          data[104] != 0,
	}, nil
}

func DecodeEmployeeEntry(data []byte, cache *lru.Cache) (*EmployeeEntry, error) {
	if len(data) < employeeEntryLen {
		return nil, fmt.Errorf("employee entry: %d bytes, need %d", len(data), employeeEntryLen)
	}
	employeeID, _ := confidential.DecodeHandleAt(data, 48)
	salary, _ := confidential.DecodeHandleAt(data, 64)
	accrued, _ := confidential.DecodeHandleAt(data, 80)
	return &EmployeeEntry{
		BusinessEntry:    utils.EncodeBase58Strict(cache, data[8:40]),
		EmployeeIndex:    binary.LittleEndian.Uint64(data[40:48]),
		EmployeeID:       employeeID,
		EncryptedSalary:  salary,
		EncryptedAccrued: accrued,
		LastAction:       int64(binary.LittleEndian.Uint64(data[96:104])),
		IsActive:         data[104] != 0,
	}, nil
}
