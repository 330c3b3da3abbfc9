package model

// HistoryEntry is a single transaction in the account's history feed.
// Date is the server-provided display string; entries keep the server's
// order and are never re-sorted by the client.
type HistoryEntry struct {
	Date               string `json:"date"`
	Type               string `json:"type"`
	BalanceChangeCents int64  `json:"balanceChange"`
}
