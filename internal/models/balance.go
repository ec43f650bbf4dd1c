package models

// Balances holds wallet balances in whole units.
type Balances struct {
	TON  float64 `json:"TON"`
	USDT float64 `json:"USDT"`
}

// BalanceResponse is the body of GET /api/user/balance/:walletAddress.
type BalanceResponse struct {
	Success  bool     `json:"success"`
	Balances Balances `json:"balances"`
	Wallet   string   `json:"wallet"`
}
