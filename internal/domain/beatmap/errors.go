package beatmap

import "errors"

var (
	ErrInvalidType = errors.New("invalid beatmap type")
)
