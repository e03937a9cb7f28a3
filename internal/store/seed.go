package store

// AccountSeed and the symbol list are the two pieces of config.yaml's
// `authentication.accounts[]` / `market.symbols[]` surface (spec.md
// §6) that the store implementations need to seed default data from,
// mirroring the original db_manager's `_initialize_default_data`.
type AccountSeed struct {
	AccountID      string
	Username       string
	Password       string
	AccountType    string // LIVE, PAPER
	BaseCurrency   string
	InitialBalance float64
}
