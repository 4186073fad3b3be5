package calculator

import (
	"fmt"
	"strings"

	"github.com/mmynk/settleup/pkg/money"
)

// memberSet indexes the ledger members and rejects blank or repeated names.
func memberSet(members []string) (map[string]bool, error) {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		if strings.TrimSpace(m) == "" {
			return nil, &ValidationError{ExpenseIndex: -1, Err: ErrEmptyMemberName}
		}
		if set[m] {
			return nil, &ValidationError{ExpenseIndex: -1, Participant: m, Err: ErrDuplicateMember}
		}
		set[m] = true
	}
	return set, nil
}

// ValidateMembers checks that member names are non-blank and unique.
func ValidateMembers(members []string) error {
	_, err := memberSet(members)
	return err
}

// ValidateExpense checks a single expense against the given member list.
func ValidateExpense(members []string, exp Expense) error {
	set, err := memberSet(members)
	if err != nil {
		return err
	}
	_, err = expenseShares(0, exp, set)
	return err
}

// Shares returns how much each beneficiary of exp is charged.
// The split is equal; leftover cents go to the beneficiaries listed first.
func Shares(members []string, exp Expense) (map[string]money.Amount, error) {
	set, err := memberSet(members)
	if err != nil {
		return nil, err
	}
	shares, err := expenseShares(0, exp, set)
	if err != nil {
		return nil, err
	}

	out := make(map[string]money.Amount, len(shares))
	for i, b := range exp.Beneficiaries {
		out[b] = shares[i]
	}
	return out, nil
}

// expenseShares validates exp and splits its amount. The returned slice is
// parallel to exp.Beneficiaries.
func expenseShares(index int, exp Expense, members map[string]bool) ([]money.Amount, error) {
	invalid := func(participant string, err error) error {
		return &ValidationError{ExpenseIndex: index, ExpenseID: exp.ID, Participant: participant, Err: err}
	}

	if !exp.Amount.IsPositive() {
		return nil, invalid("", ErrNonPositiveAmount)
	}
	if exp.Amount > money.MaxAmount {
		return nil, invalid("", ErrAmountTooLarge)
	}
	if !members[exp.Payer] {
		return nil, invalid(exp.Payer, ErrNonMemberPayer)
	}
	if len(exp.Beneficiaries) == 0 {
		return nil, invalid("", ErrNoBeneficiaries)
	}

	seen := make(map[string]bool, len(exp.Beneficiaries))
	for _, b := range exp.Beneficiaries {
		if !members[b] {
			return nil, invalid(b, ErrNonMemberBeneficiary)
		}
		if seen[b] {
			return nil, invalid(b, ErrDuplicateBeneficiary)
		}
		seen[b] = true
	}

	shares, err := exp.Amount.Split(len(exp.Beneficiaries))
	if err != nil {
		return nil, fmt.Errorf("failed to split expense %d: %w", index, err)
	}
	return shares, nil
}
