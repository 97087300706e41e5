package store

import (
	"fmt"

	"github.com/tinkerborg/otaupdate/internal/apperr"
)

// ErrNotFound and ErrExist wrap the apperr taxonomy so handlers can
// translate a bare store error straight to a status code via
// errors.Is(err, apperr.ErrNotFound) without every query needing its own
// translation step.
var (
	ErrNotFound = fmt.Errorf("%w: record not found", apperr.ErrNotFound)
	ErrExist    = fmt.Errorf("%w: record already exists", apperr.ErrConflict)
)
