package service

import (
	"errors"

	"wayfare/internal/store"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrPlaceAlreadyInList = errors.New("place already in list")
	ErrPlaceNotInList     = errors.New("place not in list")
	ErrTypeImmutable      = errors.New("place type cannot be changed")
	ErrInvalidPlaceType   = errors.New("invalid place type")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidVisibility  = errors.New("visibility must be public, private or unlisted")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidOrder       = errors.New("order must name every place of the list exactly once")
	ErrInvalidZoom        = errors.New("zoom must be a finite number")
	ErrSlugTaken          = errors.New("slug already in use")
	ErrInvalidImport      = errors.New("invalid import")
	ErrInvalidName        = errors.New("name must contain letters or digits")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrPhotoNotOfPlace    = errors.New("photo does not belong to this place")
)

// exists turns a lookup result into a yes/no answer. Only store.ErrNotFound
// means "no"; any other error is propagated.
func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if store.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
