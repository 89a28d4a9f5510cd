package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/authwire/authwire/internal/configmerge"
	awerrors "github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/platform"
	"github.com/authwire/authwire/internal/provider"
	"github.com/authwire/authwire/pkg/fileutil"
)

// EnvTemplateFile is the environment template merged on every run.
const EnvTemplateFile = ".env.example"

// mergeConfig merges the provider's keys into the platform config file and
// the env template. Returns the files it changed, relative to root.
//
// Platform config values use the platform's secret reference syntax; the
// env template records empty values for the developer to fill in. The merge
// is add-only: a key the user already set keeps its value.
func mergeConfig(root string, plat *platform.Platform, desc provider.Descriptor) ([]string, error) {
	var touched []string

	if plat.MergesConfig() {
		modified, err := mergePlatformConfig(root, plat, desc)
		if err != nil {
			return nil, err
		}
		if modified {
			touched = append(touched, plat.ConfigFile)
		}
	}

	modified, err := mergeEnvTemplate(root, desc)
	if err != nil {
		return nil, err
	}
	if modified {
		touched = append(touched, EnvTemplateFile)
	}

	return touched, nil
}

func mergePlatformConfig(root string, plat *platform.Platform, desc provider.Descriptor) (bool, error) {
	path := filepath.Join(root, plat.ConfigFile)

	data, mode, err := readIfPresent(path)
	if err != nil {
		return false, awerrors.Classify(awerrors.KindIO, err)
	}
	if data == nil {
		// The platform was forced by the caller and its config file is not
		// there; nothing to merge into.
		return false, nil
	}

	var doc configmerge.Document
	switch plat.Format {
	case platform.FormatTOML:
		doc, err = configmerge.LoadTOML(data)
	case platform.FormatJSONC:
		doc, err = configmerge.LoadJSONC(data)
	default:
		return false, nil
	}
	if err != nil {
		return false, awerrors.Classify(awerrors.KindTransform,
			errors.Wrapf(err, "parsing %s", plat.ConfigFile))
	}

	updates := make([]configmerge.KV, 0, len(desc.ConfigKeys))
	for _, key := range desc.ConfigKeys {
		updates = append(updates, configmerge.KV{Key: key, Value: plat.SecretRef(key)})
	}

	if !doc.MergeKeys(plat.EnvSection, updates, false) {
		return false, nil
	}
	if err := fileutil.AtomicWriteFile(path, doc.Render(), mode); err != nil {
		return false, awerrors.Classify(awerrors.KindIO, err)
	}
	return true, nil
}

func mergeEnvTemplate(root string, desc provider.Descriptor) (bool, error) {
	path := filepath.Join(root, EnvTemplateFile)

	data, mode, err := readIfPresent(path)
	if err != nil {
		return false, awerrors.Classify(awerrors.KindIO, err)
	}

	doc := configmerge.LoadDotenv(data)

	updates := make([]configmerge.KV, 0, len(desc.ConfigKeys))
	for _, key := range desc.ConfigKeys {
		updates = append(updates, configmerge.KV{Key: key, Value: ""})
	}

	if !doc.MergeKeys(desc.ID, updates, false) {
		return false, nil
	}
	if err := fileutil.AtomicWriteFile(path, doc.Render(), mode); err != nil {
		return false, awerrors.Classify(awerrors.KindIO, err)
	}
	return true, nil
}

// readIfPresent returns (nil, defaultMode, nil) for a missing file.
func readIfPresent(path string) ([]byte, fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0o644, nil
		}
		return nil, 0, err
	}

	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		return nil, 0, err
	}
	return data, info.Mode().Perm(), nil
}
