package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace groups every error raised by the post-processing pipelines.
const Codespace = "windcloud"

var (
	// ErrConfiguration is returned for a missing or invalid config section, key or mode
	ErrConfiguration = errorsmod.Register(Codespace, 2, "configuration error")
	// ErrLoad is returned when a snapshot file is missing or malformed
	ErrLoad = errorsmod.Register(Codespace, 3, "snapshot load failure")
	// ErrWrite is returned when an output directory or file cannot be written
	ErrWrite = errorsmod.Register(Codespace, 4, "write failure")
	// ErrDiagnose is returned when the diagnostic engine rejects a snapshot
	ErrDiagnose = errorsmod.Register(Codespace, 5, "diagnostic failure")
	// ErrCuts is returned when cut images for a snapshot cannot be produced
	ErrCuts = errorsmod.Register(Codespace, 6, "cut emission failure")
	// ErrOutOfOrder marks a time-series record call with a skipped or repeated index
	ErrOutOfOrder = errorsmod.Register(Codespace, 7, "snapshot recorded out of order")
	// ErrAlreadyRun is returned when a finished or failed pipeline is run again
	ErrAlreadyRun = errorsmod.Register(Codespace, 8, "pipeline already run")
	// ErrInvalidMode is returned for a mode name or number outside the known set
	ErrInvalidMode = errorsmod.Register(Codespace, 9, "invalid mode")
)
