package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// ParseQueryGt parses the named query parameter, falling back to def when it
// is absent, and requires the value to be greater than min.
func ParseQueryGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min, def int64) (int64, bool) {
	return parseQuery(r, w, logger, key, gt(min), def)
}

// ParseQueryGte parses the named query parameter, falling back to def when it
// is absent, and requires the value to be greater than or equal to min.
func ParseQueryGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, min, def int64) (int64, bool) {
	return parseQuery(r, w, logger, key, gte(min), def)
}

func parseQuery(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator, def int64) (int64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return intValue, true
}
