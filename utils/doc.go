// Package utils provides internal utility functions for rapidbus-avl.
// This package is not intended to be imported by external code.
//
// It contains time formatting helpers shared by the GTFS-RT vehicle
// listing and the health endpoint.
package utils
