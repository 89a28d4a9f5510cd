package provider

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	awerrors "github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/pkg/fileutil"
)

// RecordDependencies merges reqs into the go.mod at path. The merge is
// add-only: a module already required keeps its version, whatever it is.
// Returns whether the file changed.
func RecordDependencies(path string, reqs []Requirement) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, awerrors.Classify(awerrors.KindIO, errors.Wrap(err, "go.mod"))
	}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return false, awerrors.Classify(awerrors.KindIO, errors.Wrap(err, "go.mod"))
	}

	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return false, awerrors.Classify(awerrors.KindTransform, errors.Wrap(err, "parsing go.mod"))
	}

	existing := make(map[string]bool, len(mf.Require))
	for _, r := range mf.Require {
		existing[r.Mod.Path] = true
	}

	modified := false
	for _, req := range reqs {
		if err := module.CheckPath(req.Path); err != nil {
			return false, awerrors.Classify(awerrors.KindTransform,
				errors.Wrapf(err, "requirement %s", req.Path))
		}
		if _, err := semver.NewVersion(req.Version); err != nil {
			return false, awerrors.Classify(awerrors.KindTransform,
				errors.Wrapf(err, "requirement %s@%s", req.Path, req.Version))
		}

		if existing[req.Path] {
			continue
		}
		if err := mf.AddRequire(req.Path, req.Version); err != nil {
			return false, awerrors.Classify(awerrors.KindTransform,
				errors.Wrapf(err, "adding requirement %s", req.Path))
		}
		modified = true
	}

	if !modified {
		return false, nil
	}

	mf.Cleanup()
	out, err := mf.Format()
	if err != nil {
		return false, awerrors.Classify(awerrors.KindTransform, errors.Wrap(err, "formatting go.mod"))
	}

	if err := fileutil.AtomicWriteFile(path, out, info.Mode().Perm()); err != nil {
		return false, awerrors.Classify(awerrors.KindIO, errors.Wrap(err, "writing go.mod"))
	}

	return true, nil
}
