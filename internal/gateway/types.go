package gateway

// 对外 JSON 类型。金额同时给字符串原值与换算后数值，
// 前端展示用 amount，对账用 raw

type BalancePathReq struct {
	Identity string `path:"identity"`
}

type BalanceResp struct {
	Identity  string  `json:"identity"`
	Exists    bool    `json:"exists"`
	Amount    float64 `json:"amount"`
	Raw       string  `json:"raw,omitempty"`
	Handle    string  `json:"handle,omitempty"`
	FromCache bool    `json:"fromCache"`
}

type VaultResp struct {
	Authority         string `json:"authority"`
	TotalBalance      uint64 `json:"totalBalance"`
	NextBusinessIndex uint64 `json:"nextBusinessIndex"`
	IsActive          bool   `json:"isActive"`
	ConfidentialMint  string `json:"confidentialMint"`
}

type BusinessResp struct {
	EntryIndex        uint64 `json:"entryIndex"`
	NextEmployeeIndex uint64 `json:"nextEmployeeIndex"`
	IsActive          bool   `json:"isActive"`
	// 加密字段只透出 handle，明文必须走解密协议
	BalanceHandle string `json:"balanceHandle"`
}

type BusinessListResp struct {
	Businesses []BusinessResp `json:"businesses"`
}

type EmployeesPathReq struct {
	EntryIndex uint64 `path:"entryIndex"`
}

type EmployeeResp struct {
	EmployeeIndex uint64 `json:"employeeIndex"`
	LastAction    int64  `json:"lastAction"`
	IsActive      bool   `json:"isActive"`
	SalaryHandle  string `json:"salaryHandle"`
	AccruedHandle string `json:"accruedHandle"`
}

type EmployeeListResp struct {
	Employees []EmployeeResp `json:"employees"`
}

type ErrorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
