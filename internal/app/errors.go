package service

import (
	"errors"
)

// Sentinel kinds for run failures.
var (
	ErrPriorRanking = errors.New("read prior ranking")
	ErrEmptyRanking = errors.New("prior ranking has no systems")
)
