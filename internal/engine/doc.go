// Package engine hosts bonding curves against a custody ledger.
//
// Every mutating operation follows the same path: the curve is locked, the
// pure transition from package curve runs on a copy, the matching custody
// transfers are staged, the staged balances are checked with
// curve.CheckInvariants and the new snapshot is written to the store. Only
// when all of that succeeds are custody and the in-memory state replaced.
package engine
