package render

import (
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitebuild/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuild/internal/source"
)

// WriteArtifact persists one artifact under the output root. The write is
// atomic per file: a temp file in the destination directory followed by a
// rename, so a crash mid-write never leaves a truncated page behind.
func WriteArtifact(outputRoot string, a *Artifact) error {
	dest := filepath.Join(outputRoot, filepath.FromSlash(a.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return ferrors.FileSystemError("create artifact directory").
			WithContext("artifact", a.Path).
			WithCause(err).
			Build()
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, a.Data, 0o644); err != nil {
		return ferrors.FileSystemError("write artifact").
			WithContext("artifact", a.Path).
			WithCause(err).
			Build()
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return ferrors.FileSystemError("promote artifact").
			WithContext("artifact", a.Path).
			WithCause(err).
			Build()
	}
	return nil
}

// CopyAsset places an asset at its fingerprinted output path. The
// fingerprint is part of the name, so an existing destination is already
// current and the copy is skipped. Returns whether bytes were written.
func CopyAsset(outputRoot string, asset *source.Asset, outPath string) (bool, error) {
	dest := filepath.Join(outputRoot, filepath.FromSlash(outPath))
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}

	data, err := os.ReadFile(asset.AbsPath)
	if err != nil {
		return false, ferrors.FileSystemError("read asset").
			WithContext("asset", asset.SourcePath).
			WithCause(err).
			Build()
	}

	a := &Artifact{Path: outPath, Data: data, Fingerprint: asset.Fingerprint}
	if err := WriteArtifact(outputRoot, a); err != nil {
		return false, err
	}
	return true, nil
}
