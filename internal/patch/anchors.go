package patch

import (
	"regexp"
	"strings"
)

// AnchorKind names the strategy that located an insertion point. Kinds are
// ordered by priority; tests assert the fallback ordering directly.
type AnchorKind string

const (
	// AnchorImportSame is the highest-priority import anchor: after the
	// last existing auth-package import.
	AnchorImportSame AnchorKind = "import-same-category"

	// AnchorImportRelated lands after the last import of another
	// module-internal package.
	AnchorImportRelated AnchorKind = "import-related-category"

	// AnchorImportLast lands after the last import statement of any kind.
	AnchorImportLast AnchorKind = "import-last"

	// AnchorFileTop is the final import fallback: right below the package
	// clause, as a new import statement.
	AnchorFileTop AnchorKind = "file-top"

	// AnchorInitSameKind lands after the last existing registration call
	// inside the initialization routine.
	AnchorInitSameKind AnchorKind = "init-same-kind"

	// AnchorInitBodyTop lands directly after the initialization routine's
	// opening brace.
	AnchorInitBodyTop AnchorKind = "init-body-top"
)

// importLine is one import found in the file.
type importLine struct {
	index   int    // line index
	path    string // import path without quotes
	inBlock bool   // inside an import ( ... ) block
}

var (
	blockImportRe  = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
	singleImportRe = regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	packageRe      = regexp.MustCompile(`^package\s+\w+`)
)

// scanImports collects every import statement in the file.
func scanImports(lines []string) []importLine {
	var imports []importLine
	inBlock := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case inBlock:
			if trimmed == ")" {
				inBlock = false
				continue
			}
			if m := blockImportRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, importLine{index: i, path: m[1], inBlock: true})
			}
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case strings.HasPrefix(trimmed, "import"):
			if m := singleImportRe.FindStringSubmatch(trimmed); m != nil {
				imports = append(imports, importLine{index: i, path: m[1]})
			}
		}
	}

	return imports
}

// isAuthImport reports whether an import path belongs to the generated auth
// package category.
func isAuthImport(path string) bool {
	return strings.HasSuffix(path, "/internal/auth") || strings.Contains(path, "/internal/auth/")
}

// findImportAnchor walks the import anchor priority chain.
// internalPrefix is the module's internal package prefix (modpath/internal/).
func findImportAnchor(lines []string, internalPrefix string) (anchor importLine, kind AnchorKind, ok bool) {
	imports := scanImports(lines)

	for i := len(imports) - 1; i >= 0; i-- {
		if isAuthImport(imports[i].path) {
			return imports[i], AnchorImportSame, true
		}
	}
	for i := len(imports) - 1; i >= 0; i-- {
		if strings.HasPrefix(imports[i].path, internalPrefix) {
			return imports[i], AnchorImportRelated, true
		}
	}
	if len(imports) > 0 {
		return imports[len(imports)-1], AnchorImportLast, true
	}

	for i, line := range lines {
		if packageRe.MatchString(strings.TrimSpace(line)) {
			return importLine{index: i}, AnchorFileTop, true
		}
	}

	return importLine{}, "", false
}

// funcBody locates the bounded body of a named function: the line holding
// its opening brace and the line of the matching closing brace, found by a
// balanced-delimiter scan that skips strings and comments.
func funcBody(lines []string, name string) (open, closing int, ok bool) {
	funcRe := regexp.MustCompile(`^func\s+` + regexp.QuoteMeta(name) + `\s*\(`)

	start := -1
	for i, line := range lines {
		if funcRe.MatchString(strings.TrimSpace(line)) {
			start = i
			break
		}
	}
	if start == -1 {
		return 0, 0, false
	}

	depth := 0
	opened := false
	inBlockComment := false

	for i := start; i < len(lines); i++ {
		line := lines[i]
		j := 0
		inString := false
		inRawString := false
		var quote byte

		for j < len(line) {
			c := line[j]

			switch {
			case inBlockComment:
				if c == '*' && j+1 < len(line) && line[j+1] == '/' {
					inBlockComment = false
					j++
				}
			case inRawString:
				if c == '`' {
					inRawString = false
				}
			case inString:
				if c == '\\' {
					j++
				} else if c == quote {
					inString = false
				}
			case c == '/' && j+1 < len(line) && line[j+1] == '/':
				j = len(line)
				continue
			case c == '/' && j+1 < len(line) && line[j+1] == '*':
				inBlockComment = true
				j++
			case c == '"' || c == '\'':
				inString = true
				quote = c
			case c == '`':
				inRawString = true
			case c == '{':
				if !opened {
					opened = true
					open = i
				}
				depth++
			case c == '}':
				depth--
				if opened && depth == 0 {
					return open, i, true
				}
			}
			j++
		}
	}

	return 0, 0, false
}

// findCallAnchor locates the insertion point for the registration call
// inside the function body between open and closing (exclusive).
// pkg is the package selector of registration calls (e.g. "auth").
func findCallAnchor(lines []string, open, closing int, pkg string) (index int, kind AnchorKind) {
	callRe := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(pkg) + `\.\w+\(`)

	last := -1
	for i := open + 1; i < closing; i++ {
		if callRe.MatchString(lines[i]) {
			last = i
		}
	}
	if last >= 0 {
		return last, AnchorInitSameKind
	}
	return open, AnchorInitBodyTop
}
