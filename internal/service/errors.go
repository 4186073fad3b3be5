package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/storage"
)

// storeError maps storage failures to Connect codes.
func storeError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrGroupNotFound),
		errors.Is(err, storage.ErrExpenseNotFound),
		errors.Is(err, storage.ErrMemberNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrMemberExists),
		errors.Is(err, storage.ErrGroupExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// writeError maps failures from writes that validate expenses.
func (s *GroupService) writeError(err error) *connect.Error {
	if calculator.IsValidation(err) {
		return s.calcError(err, false)
	}
	return storeError(err)
}

// calcError maps calculator failures to Connect codes. stored reports whether
// the offending data was already persisted (FailedPrecondition) or came in
// with the request (InvalidArgument).
func (s *GroupService) calcError(err error, stored bool) *connect.Error {
	if calculator.IsConsistencyFault(err) {
		metrics.ConsistencyFaults.Inc()
		slog.Error("Consistency fault", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	if calculator.IsValidation(err) {
		metrics.ValidationErrors.Inc()
		if stored {
			return connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	return connect.NewError(connect.CodeInternal, err)
}
