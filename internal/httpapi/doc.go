// Package httpapi assembles the HTTP surface of wpgate: the access-level
// query endpoint, the content metadata route and health, with the
// authentication gate mounted per route group. Routes that can answer
// anonymous callers run with optional auth; everything else uses the
// configured unauthenticated behavior.
package httpapi
