// Package session scrapes the viewer session from the operator's kiosk page.
//
// The kiosk page for a route embeds three script assignments:
//
//	var sid = '...';       // visitor id
//	var prm = '...';       // provider
//	var no_route = '...';  // route number
//
// Resolver fetches the page with a cookie jar and a browser User-Agent and
// extracts each field independently. Resolution never fails: missing fields
// fall back to defaults and an unreachable page yields the default Session.
package session
