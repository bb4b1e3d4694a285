package rules

import "strings"

// Language is a supported language tag derived from a file extension
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangRuby       Language = "ruby"
	LangGo         Language = "go"
	LangPHP        Language = "php"
	LangCSharp     Language = "csharp"
	LangCSS        Language = "css"
	LangHTML       Language = "html"
	LangMarkdown   Language = "markdown"
)

var extensions = map[string]Language{
	"js":   LangJavaScript,
	"jsx":  LangJavaScript,
	"ts":   LangTypeScript,
	"tsx":  LangTypeScript,
	"java": LangJava,
	"py":   LangPython,
	"rb":   LangRuby,
	"go":   LangGo,
	"php":  LangPHP,
	"cs":   LangCSharp,
	"css":  LangCSS,
	"html": LangHTML,
	"md":   LangMarkdown,
}

// Classify maps a file name to a language tag by its extension.
// The second return value is false for unsupported files.
func Classify(fileName string) (Language, bool) {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return "", false
	}
	ext := strings.ToLower(fileName[idx+1:])
	lang, ok := extensions[ext]
	return lang, ok
}

// defaultExcludedDirs are directory names never descended into during a walk
var defaultExcludedDirs = []string{
	"node_modules", ".git", "build", "dist", "target", "bin",
}

// DefaultExcludedDirs returns a copy of the built-in exclusion set
func DefaultExcludedDirs() []string {
	out := make([]string, len(defaultExcludedDirs))
	copy(out, defaultExcludedDirs)
	return out
}
