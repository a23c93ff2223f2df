package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// Ledger posting errors.

// ErrUnbalancedTransaction indicates that the debit and credit totals of a
// transaction differ by more than the accepted tolerance.
var ErrUnbalancedTransaction = errors.New("transaction debits and credits do not balance")

// ErrNonPostableAccount indicates that an entry targets an aggregation account
// that does not accept direct postings.
var ErrNonPostableAccount = errors.New("account does not accept postings")

// ErrMissingThirdParty indicates that an entry against an account requiring a
// third party carries none.
var ErrMissingThirdParty = errors.New("entry requires a third party reference")

// ErrUnknownThirdParty indicates a third party reference that does not resolve
// to an existing entity.
var ErrUnknownThirdParty = errors.New("third party reference does not exist")

// ErrOwnershipMismatch indicates an attempt to touch data outside the caller's
// conjunto scope.
var ErrOwnershipMismatch = errors.New("resource belongs to a different conjunto")

// Period closure errors.

// ErrPeriodAlreadyClosed indicates that a completed closure already exists for
// the requested period.
var ErrPeriodAlreadyClosed = errors.New("period is already closed")

// ErrUnpostedTransactionsExist indicates draft transactions remain inside the
// period being closed.
var ErrUnpostedTransactionsExist = errors.New("draft transactions exist in the period")

// ErrFuturePeriod indicates the requested period ends in the future.
var ErrFuturePeriod = errors.New("period end date is in the future")

// ErrMissingRequiredAccount indicates a well-known chart-of-accounts account
// (clearing, reserve fund, surplus/deficit equity) is absent.
var ErrMissingRequiredAccount = errors.New("required account is missing from the chart of accounts")

// ErrClosureNotReversible indicates a reversal was requested for a closure
// that is not in completed status.
var ErrClosureNotReversible = errors.New("closure is not reversible")
