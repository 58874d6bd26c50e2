package chunk

import "errors"

var (
	// ErrInvalidOptions indicates a misconfigured chunker, for example an
	// overlap that is not smaller than the chunk size.
	ErrInvalidOptions = errors.New("invalid chunking options")

	// ErrUnknownStrategy indicates an unrecognized chunking strategy name.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")

	// ErrNoChunks indicates the input text produced zero chunks.
	ErrNoChunks = errors.New("no chunks produced from text")
)
