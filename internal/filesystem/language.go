package filesystem

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".go":    "go",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rb":    "ruby",
	".php":   "php",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rs":    "rust",
	".sh":    "shell",
	".bash":  "shell",
	".zsh":   "shell",
	".md":    "markdown",
	".mdx":   "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
	".sql":   "sql",
	".tf":    "terraform",
	".proto": "protobuf",
}

var languageByName = map[string]string{
	"dockerfile":  "docker",
	"makefile":    "make",
	"jenkinsfile": "groovy",
}

// DetectLanguage returns the language key for path, or "" if unknown.
// Extensionless files are classified by their shebang line.
func DetectLanguage(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	if lang, ok := languageByName[strings.ToLower(filepath.Base(path))]; ok {
		return lang
	}
	if filepath.Ext(path) == "" {
		return shebangLanguage(path)
	}
	return ""
}

func shebangLanguage(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return ""
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	switch interp {
	case "sh", "bash", "zsh", "dash", "ksh":
		return "shell"
	case "python", "python3":
		return "python"
	case "node":
		return "javascript"
	case "ruby":
		return "ruby"
	}
	return ""
}
