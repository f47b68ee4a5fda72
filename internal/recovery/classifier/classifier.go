// Package classifier turns raw failure output into structured domain errors.
package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Config holds the ordered pattern groups and the per-type remediation
// suggestion table. Groups are tested in order transient, permanent,
// ambiguous; the first group with any match decides the category.
type Config struct {
	Transient   []string
	Permanent   []string
	Ambiguous   []string
	Suggestions map[domain.ErrorType]string
}

// Classifier matches raw output against compiled pattern groups.
type Classifier struct {
	transient   []*regexp.Regexp
	permanent   []*regexp.Regexp
	ambiguous   []*regexp.Regexp
	suggestions map[domain.ErrorType]string
}

// New compiles the configured patterns. Patterns are matched
// case-insensitively.
func New(cfg Config) (*Classifier, error) {
	c := &Classifier{suggestions: cfg.Suggestions}
	for _, group := range []struct {
		src []string
		dst *[]*regexp.Regexp
	}{
		{cfg.Transient, &c.transient},
		{cfg.Permanent, &c.permanent},
		{cfg.Ambiguous, &c.ambiguous},
	} {
		for _, p := range group.src {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern %q: %w", p, err)
			}
			*group.dst = append(*group.dst, re)
		}
	}
	return c, nil
}

// Default returns a classifier built from the stock pattern tables.
func Default() *Classifier {
	c, err := New(DefaultConfig())
	if err != nil {
		// Stock patterns are constants; a compile failure is a programmer error.
		panic(err)
	}
	return c
}

// Classify inspects raw output and returns a structured error, or nil when no
// error can be detected. It never panics: any internal failure degrades to a
// nil classification.
func (c *Classifier) Classify(raw, source string, exitCode *int, ctx map[string]any) (result *domain.Error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()

	if strings.TrimSpace(raw) == "" {
		if exitCode != nil && *exitCode != 0 {
			return c.exitCodeOnly(source, exitCode, ctx)
		}
		return nil
	}

	var category domain.ErrorCategory
	switch {
	case matchAny(c.transient, raw):
		category = domain.CategoryTransient
	case matchAny(c.permanent, raw):
		category = domain.CategoryPermanent
	case matchAny(c.ambiguous, raw):
		category = domain.CategoryAmbiguous
	default:
		if exitCode != nil && *exitCode != 0 {
			return c.exitCodeOnly(source, exitCode, ctx)
		}
		return nil
	}

	errType := c.resolveType(category, raw, source)

	e := domain.NewError(errType, category, firstLine(raw), source)
	e.Context = ctx
	e.ExitCode = exitCode
	e.StackTrace = raw
	e.Suggestion = c.suggestion(category, errType)
	if file, line, ok := extractLocation(raw); ok {
		e.File = file
		e.Line = line
	}
	return e
}

func (c *Classifier) exitCodeOnly(source string, exitCode *int, ctx map[string]any) *domain.Error {
	e := domain.NewError(
		domain.ErrUnknown,
		domain.CategoryAmbiguous,
		fmt.Sprintf("process exited with code %d and no output", *exitCode),
		source,
	)
	e.Context = ctx
	e.ExitCode = exitCode
	e.Suggestion = c.suggestion(domain.CategoryAmbiguous, domain.ErrUnknown)
	return e
}

// resolveType runs the secondary keyword scan within the matched category.
func (c *Classifier) resolveType(category domain.ErrorCategory, raw, source string) domain.ErrorType {
	lower := strings.ToLower(raw)

	switch category {
	case domain.CategoryTransient:
		switch {
		case strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many requests"):
			return domain.ErrRateLimited
		case strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"),
			strings.Contains(lower, "deadline exceeded"):
			return domain.ErrTimeout
		case strings.Contains(lower, "connection"), strings.Contains(lower, "network"),
			strings.Contains(lower, "unreachable"):
			return domain.ErrNetwork
		case source == "subprocess":
			return domain.ErrSubprocessTimeout
		default:
			return domain.ErrResourceUnavailable
		}

	case domain.CategoryPermanent:
		switch {
		case strings.Contains(lower, "indentationerror"), strings.Contains(lower, "unexpected indent"):
			return domain.ErrIndentation
		case strings.Contains(lower, "syntaxerror"), strings.Contains(lower, "invalid syntax"),
			strings.Contains(lower, "syntax error"):
			return domain.ErrSyntax
		case strings.Contains(lower, "importerror"), strings.Contains(lower, "modulenotfounderror"),
			strings.Contains(lower, "no module named"), strings.Contains(lower, "cannot find module"),
			strings.Contains(lower, "cannot find package"):
			return domain.ErrImport
		case strings.Contains(lower, "nameerror"):
			return domain.ErrName
		case strings.Contains(lower, "undefined"), strings.Contains(lower, "not defined"):
			return domain.ErrUndefinedSymbol
		case strings.Contains(lower, "typeerror"), strings.Contains(lower, "type mismatch"):
			return domain.ErrTypeMismatch
		case strings.Contains(lower, "attributeerror"):
			return domain.ErrAttribute
		case strings.Contains(lower, "keyerror"):
			return domain.ErrKey
		case strings.Contains(lower, "valueerror"):
			return domain.ErrValue
		case strings.Contains(lower, "no such file"), strings.Contains(lower, "enoent"),
			strings.Contains(lower, "file not found"):
			return domain.ErrFileNotFound
		case strings.Contains(lower, "permission denied"), strings.Contains(lower, "unauthorized"),
			strings.Contains(lower, "forbidden"), strings.Contains(lower, "access denied"):
			return domain.ErrPermissionDenied
		case strings.Contains(lower, "missing dependency"), strings.Contains(lower, "unresolved dependency"),
			strings.Contains(lower, "could not resolve"):
			return domain.ErrMissingDependency
		case strings.Contains(lower, "test failed"), strings.Contains(lower, "assertion"),
			strings.Contains(lower, "tests failed"):
			return domain.ErrTestFailure
		case strings.Contains(lower, "lint"), strings.Contains(lower, "style violation"):
			return domain.ErrCodeQuality
		default:
			return domain.ErrUnknown
		}

	default:
		return domain.ErrUnknown
	}
}

func (c *Classifier) suggestion(category domain.ErrorCategory, errType domain.ErrorType) string {
	// Ambiguous failures always get the generic investigation hint.
	if category == domain.CategoryAmbiguous {
		return c.suggestions[domain.ErrUnknown]
	}
	if s, ok := c.suggestions[errType]; ok {
		return s
	}
	return c.suggestions[domain.ErrUnknown]
}

func matchAny(group []*regexp.Regexp, raw string) bool {
	for _, re := range group {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

func firstLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(raw)
}

var (
	pyLocation = regexp.MustCompile(`File "([^"]+)", line (\d+)`)
	goLocation = regexp.MustCompile(`([\w./-]+\.\w+):(\d+)`)
)

// extractLocation pulls a file and line reference out of a traceback when one
// is present.
func extractLocation(raw string) (string, int, bool) {
	if m := pyLocation.FindStringSubmatch(raw); m != nil {
		line, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1], line, true
		}
	}
	if m := goLocation.FindStringSubmatch(raw); m != nil {
		line, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1], line, true
		}
	}
	return "", 0, false
}
