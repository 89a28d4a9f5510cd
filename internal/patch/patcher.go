package patch

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	awerrors "github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/pkg/fileutil"
)

// DefaultInitFunc is the routine patched when none is configured.
const DefaultInitFunc = "main"

// Request describes one entry point patch.
type Request struct {
	// FilePath is the absolute path of the bootstrap source file.
	FilePath string

	// ModulePath is the target project's module path, used to classify
	// imports into categories.
	ModulePath string

	// ImportPath is the generated auth package to import.
	ImportPath string

	// Symbol is the registration symbol whose presence anywhere in the
	// file marks the patch as already applied, e.g. "auth.RegisterAuth0".
	Symbol string

	// Call is the registration statement to insert, without indentation.
	Call string

	// InitFunc names the routine that receives the call. Empty means
	// DefaultInitFunc.
	InitFunc string

	// Force inserts the call even when Symbol is already present.
	Force bool
}

// Result reports what the patcher did and which anchors it used.
type Result struct {
	Modified     bool
	ImportAnchor AnchorKind
	CallAnchor   AnchorKind
}

// Apply patches the file described by req. A missing file or an
// initialization routine that cannot be located is a transform failure; the
// file on disk is only rewritten when both insertions succeed.
func Apply(req Request) (Result, error) {
	initFunc := req.InitFunc
	if initFunc == "" {
		initFunc = DefaultInitFunc
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return Result{}, awerrors.Classify(awerrors.KindTransform,
			errors.Wrapf(err, "entry point %s", req.FilePath))
	}

	data, err := fileutil.ReadFileWithLimit(req.FilePath)
	if err != nil {
		return Result{}, awerrors.Classify(awerrors.KindIO,
			errors.Wrapf(err, "reading entry point %s", req.FilePath))
	}
	content := string(data)

	if strings.Contains(content, req.Symbol) && !req.Force {
		return Result{Modified: false}, nil
	}

	lines := strings.Split(content, "\n")

	lines, importAnchor, err := insertImport(lines, req)
	if err != nil {
		return Result{}, err
	}

	lines, callAnchor, err := insertCall(lines, req.Call, initFunc)
	if err != nil {
		return Result{}, err
	}

	out := strings.Join(lines, "\n")
	if err := fileutil.AtomicWriteFile(req.FilePath, []byte(out), info.Mode().Perm()); err != nil {
		return Result{}, awerrors.Classify(awerrors.KindIO,
			errors.Wrapf(err, "writing entry point %s", req.FilePath))
	}

	return Result{Modified: true, ImportAnchor: importAnchor, CallAnchor: callAnchor}, nil
}

// insertImport adds the auth import unless it is already present. A second
// import of the same path would not compile, so force never duplicates it.
func insertImport(lines []string, req Request) ([]string, AnchorKind, error) {
	for _, imp := range scanImports(lines) {
		if imp.path == req.ImportPath {
			return lines, "", nil
		}
	}

	anchor, kind, ok := findImportAnchor(lines, req.ModulePath+"/internal/")
	if !ok {
		return nil, "", awerrors.Classifyf(awerrors.KindTransform,
			"no package clause in %s", req.FilePath)
	}

	var insert []string
	switch kind {
	case AnchorImportSame:
		insert = []string{"\t" + quote(req.ImportPath)}
	case AnchorImportRelated, AnchorImportLast:
		if anchor.inBlock {
			insert = []string{"", "\t// authentication", "\t" + quote(req.ImportPath)}
		} else {
			insert = []string{"", "// authentication", "import " + quote(req.ImportPath)}
		}
	case AnchorFileTop:
		insert = []string{"", "import " + quote(req.ImportPath)}
	}

	return spliceAfter(lines, anchor.index, insert), kind, nil
}

// insertCall adds the registration statement to the initialization routine.
func insertCall(lines []string, call, initFunc string) ([]string, AnchorKind, error) {
	open, closing, ok := funcBody(lines, initFunc)
	if !ok {
		return nil, "", awerrors.Classifyf(awerrors.KindTransform,
			"cannot locate function %q in entry point", initFunc)
	}

	pkg := callSelector(call)
	index, kind := findCallAnchor(lines, open, closing, pkg)

	var insert []string
	switch kind {
	case AnchorInitSameKind:
		insert = []string{indentOf(lines[index]) + call}
	case AnchorInitBodyTop:
		indent := bodyIndent(lines, open, closing)
		insert = []string{indent + "// wire authentication", indent + call}
	}

	return spliceAfter(lines, index, insert), kind, nil
}

func spliceAfter(lines []string, index int, insert []string) []string {
	out := make([]string, 0, len(lines)+len(insert))
	out = append(out, lines[:index+1]...)
	out = append(out, insert...)
	out = append(out, lines[index+1:]...)
	return out
}

func quote(s string) string {
	return `"` + s + `"`
}

// callSelector extracts the package selector from a registration statement.
func callSelector(call string) string {
	if dot := strings.IndexByte(call, '.'); dot > 0 {
		return call[:dot]
	}
	return call
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// bodyIndent picks the indentation of the first statement in the body, or a
// single tab when the body is empty.
func bodyIndent(lines []string, open, closing int) string {
	for i := open + 1; i < closing; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return indentOf(lines[i])
		}
	}
	return "\t"
}
