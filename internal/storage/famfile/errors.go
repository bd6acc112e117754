package famfile

import "errors"

// Error classes returned by Save and Load. Every returned error wraps one of
// these and reads as a complete sentence for display.
var (
	ErrNotDirectory         = errors.New("not a directory")
	ErrNotExist             = errors.New("file does not exist")
	ErrNotFile              = errors.New("not a regular file")
	ErrUnreadable           = errors.New("file is not readable")
	ErrParse                = errors.New("malformed document")
	ErrMissingRelationships = errors.New("relationship file is missing")
	ErrWrite                = errors.New("unable to write file")
)
