package classifier

import "github.com/vietddude/remedy/internal/core/domain"

// DefaultConfig returns the stock pattern groups and suggestion table.
// Order inside a group does not matter; group order does, and is fixed at
// transient, permanent, ambiguous.
func DefaultConfig() Config {
	return Config{
		Transient: []string{
			`timed? ?out`,
			`timeout`,
			`deadline exceeded`,
			`connection (refused|reset)`,
			`network (is )?unreachable`,
			`temporar(y|ily)`,
			`rate.?limit`,
			`too many requests`,
			`resource busy`,
			`try again`,
		},
		Permanent: []string{
			`syntax ?error`,
			`invalid syntax`,
			`indentation ?error`,
			`unexpected indent`,
			`import ?error`,
			`modulenotfounderror`,
			`no module named`,
			`cannot find (module|package)`,
			`name ?error`,
			`type ?error`,
			`attribute ?error`,
			`key ?error`,
			`value ?error`,
			`no such file`,
			`file not found`,
			`permission denied`,
			`unauthorized`,
			`forbidden`,
			`access denied`,
			`missing dependency`,
			`unresolved dependency`,
			`undefined (symbol|reference|variable)`,
			`is not defined`,
			`(test|tests) failed`,
			`assertion(error| failed)`,
		},
		Ambiguous: []string{
			`\berror\b`,
			`\bexception\b`,
			`\bfailed\b`,
			`\bfailure\b`,
		},
		Suggestions: defaultSuggestions(),
	}
}

func defaultSuggestions() map[domain.ErrorType]string {
	return map[domain.ErrorType]string{
		domain.ErrTimeout:             "increase the operation timeout or retry after a short delay",
		domain.ErrRateLimited:         "back off and retry; consider lowering the request rate",
		domain.ErrNetwork:             "check network connectivity and retry",
		domain.ErrResourceUnavailable: "wait for the contended resource to free up and retry",
		domain.ErrSubprocessTimeout:   "raise the subprocess timeout or split the step into smaller units",
		domain.ErrSyntax:              "fix the syntax error at the reported location",
		domain.ErrIndentation:         "fix the indentation at the reported location",
		domain.ErrImport:              "verify the module path and install the missing package",
		domain.ErrName:                "define or import the missing name before use",
		domain.ErrTypeMismatch:        "reconcile the value types at the call site",
		domain.ErrAttribute:           "check the object type; the attribute does not exist on it",
		domain.ErrKey:                 "guard the lookup or provide a default for the missing key",
		domain.ErrValue:               "validate the input value before passing it on",
		domain.ErrFileNotFound:        "verify the file path exists and is spelled correctly",
		domain.ErrPermissionDenied:    "check credentials and filesystem permissions",
		domain.ErrMissingDependency:   "install the missing dependency and pin its version",
		domain.ErrUndefinedSymbol:     "declare the symbol or link the providing library",
		domain.ErrTestFailure:         "inspect the failing assertion and fix the implementation under test",
		domain.ErrCodeQuality:         "apply the linter's suggested fix",
		domain.ErrDependency:          "switch to a compatible dependency version",
		domain.ErrUnknown:             "needs investigation: inspect the raw output manually",
	}
}
