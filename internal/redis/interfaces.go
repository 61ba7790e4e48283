package redis

import "github.com/mmynk/tripsplit/internal/settlement"

// Ensure concrete types implement the tracker's collaborators.
var (
	_ settlement.Locker = (*LockStore)(nil)
	_ settlement.Cache  = (*SettlementCache)(nil)
)
