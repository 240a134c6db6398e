package domain

import "errors"

var (
	// ErrNoSources is returned when an aggregation is attempted with no
	// configured store sources
	ErrNoSources = errors.New("no store sources configured")

	// ErrEmptyShoppingList is returned when a list has no items to process
	ErrEmptyShoppingList = errors.New("shopping list is empty")

	// ErrNoCandidates is returned when no store produced any candidate for a query
	ErrNoCandidates = errors.New("no candidates found")

	// ErrNoCompatibleCandidates is returned when candidates exist but none
	// satisfy the dietary constraints
	ErrNoCompatibleCandidates = errors.New("no compatible candidates")

	// ErrInvalidQuery is returned when query parameters are invalid
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrInvalidStrategy is returned when a ranking strategy name is unknown
	ErrInvalidStrategy = errors.New("invalid ranking strategy")

	// ErrOracleUnavailable is returned when the selection oracle cannot be reached
	ErrOracleUnavailable = errors.New("selection oracle unavailable")

	// ErrOracleBadSelection is returned when the oracle answers with something
	// that cannot be mapped back to a real candidate
	ErrOracleBadSelection = errors.New("oracle returned unusable selection")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSourceUnavailable is returned when a store source request fails
	ErrSourceUnavailable = errors.New("store source request failed")
)
