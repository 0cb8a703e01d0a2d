package data

import "errors"

var (
	NotFoundError          = errors.New("not found")
	InvalidArgumentError   = errors.New("invalid argument")
	CardinalityError       = errors.New("cardinality violation")
	TransactionActiveError = errors.New("transaction already active")
	NoTransactionError     = errors.New("no active transaction")
	DuplicateKeyError      = errors.New("duplicate key")
)
