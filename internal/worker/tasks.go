package worker

// Task Types
//
// The producing services keep their own copies of these strings: they build
// tasks inline because importing this package from services would close an
// import cycle through consumers.
const (
	TypeWalletCredit    = "wallet-credit"
	TypeSettlementCheck = "settlement-check"
)
