// Package calculator turns a group's expense history into net balances and
// reduces those balances to a short list of settling transfers.
//
// Everything here is a pure function over values passed in by the caller:
// no I/O, no shared state, safe to call concurrently. Amounts are integer
// cents (see pkg/money), so conservation of money holds exactly.
//
// Pipeline:
//
//	Ledger -> ComputeBalances -> Balances -> Simplify -> []Transfer
//
// Two error kinds come out of it. *ValidationError means the ledger is
// malformed (non-member payer or beneficiary, empty beneficiaries,
// non-positive amount). *ConsistencyFault means money appeared or vanished
// during a computation, which is a bug and should never be swallowed.
package calculator
