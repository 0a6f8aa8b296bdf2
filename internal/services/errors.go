package services

import "errors"

// Service errors
var (
	ErrNoRegions      = errors.New("no regions found")
	ErrRegionNotFound = errors.New("region not found")
	ErrNoInput        = errors.New("no input file configured")
)
