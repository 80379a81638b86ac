// Package health tracks the live feed and serves its status over HTTP.
package health
