package contracts

import "errors"

// Error categories name the layer that rejected a request. They are logged
// next to the JSON-RPC code and never sent to clients.
const (
	ErrorCategoryAPI     = "api"
	ErrorCategoryProgram = "program"
	ErrorCategoryLedger  = "ledger"
	ErrorCategoryRuntime = "runtime"
)

var knownCategories = map[string]bool{
	ErrorCategoryAPI:     true,
	ErrorCategoryProgram: true,
	ErrorCategoryLedger:  true,
	ErrorCategoryRuntime: true,
}

// WrapCategorizedError tags err with category unless something deeper in the
// chain is already tagged; the innermost tag wins.
func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	if _, tagged := categoryOf(err); tagged {
		return err
	}
	if !knownCategories[category] {
		category = ErrorCategoryAPI
	}
	return &CategorizedError{Category: category, Err: err}
}

// ErrorCategory reports the tag on err, or "api" for untagged errors.
func ErrorCategory(err error) string {
	if category, ok := categoryOf(err); ok {
		return category
	}
	return ErrorCategoryAPI
}

func categoryOf(err error) (string, bool) {
	var tagged *CategorizedError
	if !errors.As(err, &tagged) {
		return "", false
	}
	if !knownCategories[tagged.Category] {
		return ErrorCategoryAPI, true
	}
	return tagged.Category, true
}
