package rules

import (
	"regexp"

	"github.com/justin7251/ai-code-fixer/src/model"
)

// Rule is one line-pattern check. Patterns are lexical, not AST-aware,
// and apply to a single line at a time.
type Rule struct {
	ID       string
	Ruleset  string
	Severity model.Severity
	Pattern  *regexp.Regexp
	Message  string
}

// Table maps a language to its ordered rule list. A Table is built once at
// startup and must not be mutated afterwards; scanners share it by reference.
type Table map[Language][]Rule

// Rules returns the rule list for a language. Languages without rules
// (css, html, markdown) return nil, which is not an error.
func (t Table) Rules(lang Language) []Rule {
	return t[lang]
}

// Languages returns every language that carries at least one rule
func (t Table) Languages() []Language {
	langs := make([]Language, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	return langs
}

var jsRules = []Rule{
	{
		ID:       "AvoidConsoleLog",
		Ruleset:  "logging",
		Severity: model.SeverityWarning,
		Pattern:  regexp.MustCompile(`console\.log\s*\(`),
		Message:  "Avoid console.log in production code; use a logger instead",
	},
	{
		ID:       "UseConstOrLet",
		Ruleset:  "style",
		Severity: model.SeverityWarning,
		Pattern:  regexp.MustCompile(`\bvar\s+`),
		Message:  "Use const or let instead of var",
	},
	{
		ID:       "AvoidLooseEquality",
		Ruleset:  "correctness",
		Severity: model.SeverityWarning,
		Pattern:  regexp.MustCompile(`[^=!<>]==[^=]|[^=!<>]!=[^=]`),
		Message:  "Use strict equality (=== / !==) instead of loose equality",
	},
	{
		ID:       "NoTodoComment",
		Ruleset:  "maintenance",
		Severity: model.SeverityInfo,
		Pattern:  regexp.MustCompile(`//\s*TODO|/\*\s*TODO`),
		Message:  "TODO comment found; track it in an issue instead",
	},
}

// DefaultTable builds the built-in rule table. Call it once at startup and
// pass the result down; per-request construction is wasted work.
func DefaultTable() Table {
	return Table{
		LangJavaScript: jsRules,
		LangTypeScript: jsRules,
		LangPython: {
			{
				ID:       "AvoidPrintStatement",
				Ruleset:  "logging",
				Severity: model.SeverityWarning,
				Pattern:  regexp.MustCompile(`\bprint\s*\(`),
				Message:  "Avoid print in production code; use the logging module",
			},
			{
				ID:       "AvoidBareExcept",
				Ruleset:  "error-handling",
				Severity: model.SeverityError,
				Pattern:  regexp.MustCompile(`except\s*:`),
				Message:  "Bare except swallows all errors; catch specific exceptions",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`#\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
		LangJava: {
			{
				ID:       "AvoidSystemOutPrintln",
				Ruleset:  "logging",
				Severity: model.SeverityWarning,
				Pattern:  regexp.MustCompile(`System\.out\.println`),
				Message:  "Avoid System.out.println; use a logging framework",
			},
			{
				ID:       "AvoidGenericCatch",
				Ruleset:  "error-handling",
				Severity: model.SeverityError,
				Pattern:  regexp.MustCompile(`catch\s*\(\s*(Exception|Throwable)\b`),
				Message:  "Catching Exception/Throwable hides failures; catch specific types",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`//\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
		LangGo: {
			{
				ID:       "AvoidFmtPrintln",
				Ruleset:  "logging",
				Severity: model.SeverityWarning,
				Pattern:  regexp.MustCompile(`fmt\.Println\s*\(`),
				Message:  "Avoid fmt.Println in production code; use a logger",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`//\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
		LangRuby: {
			{
				ID:       "AvoidPutsStatement",
				Ruleset:  "logging",
				Severity: model.SeverityWarning,
				Pattern:  regexp.MustCompile(`\bputs\b`),
				Message:  "Avoid puts in production code; use a logger",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`#\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
		LangPHP: {
			{
				ID:       "UnvalidatedRequestParam",
				Ruleset:  "security",
				Severity: model.SeverityError,
				Pattern:  regexp.MustCompile(`\$_(GET|POST|REQUEST)\b`),
				Message:  "Request superglobal used without validation",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`//\s*TODO|#\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
		LangCSharp: {
			{
				ID:       "AvoidConsoleWriteLine",
				Ruleset:  "logging",
				Severity: model.SeverityWarning,
				Pattern:  regexp.MustCompile(`Console\.WriteLine`),
				Message:  "Avoid Console.WriteLine; use a logging framework",
			},
			{
				ID:       "AvoidGenericCatch",
				Ruleset:  "error-handling",
				Severity: model.SeverityError,
				Pattern:  regexp.MustCompile(`catch\s*\(\s*Exception\b`),
				Message:  "Catching Exception hides failures; catch specific types",
			},
			{
				ID:       "NoTodoComment",
				Ruleset:  "maintenance",
				Severity: model.SeverityInfo,
				Pattern:  regexp.MustCompile(`//\s*TODO`),
				Message:  "TODO comment found; track it in an issue instead",
			},
		},
	}
}
