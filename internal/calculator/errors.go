package calculator

import (
	"errors"
	"fmt"

	"github.com/mmynk/settleup/pkg/money"
)

var (
	ErrNonMemberPayer       = errors.New("payer is not a group member")
	ErrNonMemberBeneficiary = errors.New("beneficiary is not a group member")
	ErrNoBeneficiaries      = errors.New("expense has no beneficiaries")
	ErrDuplicateBeneficiary = errors.New("beneficiary listed more than once")
	ErrNonPositiveAmount    = errors.New("amount must be greater than zero")
	ErrAmountTooLarge       = errors.New("amount exceeds the maximum")
	ErrEmptyMemberName      = errors.New("member name cannot be empty")
	ErrDuplicateMember      = errors.New("member listed more than once")
)

// ValidationError reports input the calculator refuses to process.
// Err is one of the sentinel errors above, or money.ErrOverflow when totals
// leave the representable range, and can be matched with errors.Is.
type ValidationError struct {
	// ExpenseIndex is the position of the offending expense, or -1 when the
	// problem is in the member list or a balance mapping.
	ExpenseIndex int
	ExpenseID    string
	Participant  string
	Err          error
}

func (e *ValidationError) Error() string {
	subject := "ledger"
	if e.ExpenseIndex >= 0 {
		subject = fmt.Sprintf("expense %d", e.ExpenseIndex)
		if e.ExpenseID != "" {
			subject = fmt.Sprintf("expense %d (%s)", e.ExpenseIndex, e.ExpenseID)
		}
	}
	if e.Participant != "" {
		return fmt.Sprintf("%s: %v: %q", subject, e.Err, e.Participant)
	}
	return fmt.Sprintf("%s: %v", subject, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Stages at which a ConsistencyFault can be detected.
const (
	StageBalances        = "balances"
	StageSimplifyInput   = "simplify input"
	StageSimplifyResidue = "simplify residue"
)

// ConsistencyFault means money was created or lost during a computation.
// It signals a bug, never bad user input, and must not be recovered from.
type ConsistencyFault struct {
	Stage       string
	Participant string // set when a single participant is left unsettled
	Residual    money.Amount
}

func (e *ConsistencyFault) Error() string {
	if e.Participant != "" {
		return fmt.Sprintf("consistency fault in %s: %q left with %s", e.Stage, e.Participant, e.Residual)
	}
	return fmt.Sprintf("consistency fault in %s: balances sum to %s", e.Stage, e.Residual)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConsistencyFault reports whether err is or wraps a *ConsistencyFault.
func IsConsistencyFault(err error) bool {
	var f *ConsistencyFault
	return errors.As(err, &f)
}
