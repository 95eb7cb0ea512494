package domain

// Table is a mongo collection name
type Table string

const (
	TableTokens           Table = "tokens"
	TableTokenBalances    Table = "token_balances"
	TableTokenAllowances  Table = "token_allowances"
	TableTrackers         Table = "reward_trackers"
	TableTrackerAccounts  Table = "reward_tracker_accounts"
	TableDistributors     Table = "reward_distributors"
	TableVesters          Table = "vesters"
	TableVesterAccounts   Table = "vester_accounts"
	TablePendingTransfers Table = "pending_transfers"
)
