package binder

import "errors"

var (
	// ErrNoContext means the manifest has no identifier yet
	ErrNoContext = errors.New("context has no identifier; run `prefabind id new` first")

	// ErrOutsideRoots means the asset is not under any configured prefab directory
	ErrOutsideRoots = errors.New("asset is not in a configured prefab directory")

	// ErrNoTarget means no script anywhere carries the identifier
	ErrNoTarget = errors.New("no script found for identifier")

	// ErrIDExists guards against silently replacing an identifier
	ErrIDExists = errors.New("context already has an identifier")

	// ErrManifestExists is returned by Init when the manifest is already there
	ErrManifestExists = errors.New("manifest already exists")
)
