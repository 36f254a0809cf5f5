package wiki

import "github.com/rotisserie/eris"

var (
	// ErrNotFound indicates the requested entry, alias target or external page is absent.
	ErrNotFound = eris.New("not found")
	// ErrAlreadyExists indicates an add was attempted on an existing key.
	ErrAlreadyExists = eris.New("already exists")
	// ErrAliasConflict indicates an alias would shadow an existing entry.
	ErrAliasConflict = eris.New("alias collides with an existing entry")
	// ErrInvalid indicates missing or malformed input.
	ErrInvalid = eris.New("invalid input")
	// ErrPersistence indicates the durable commit of the wiki document failed.
	// The in-memory state still reflects the attempted change.
	ErrPersistence = eris.New("persisting wiki document failed")
)
