// Package server holds the HTTP server configuration.
//
// While the serve command handles server startup, this package defines the
// configuration structure for server settings: the listen port and the API
// key guarding the catalog routes.
package server
