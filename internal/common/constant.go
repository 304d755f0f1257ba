// Package common contains shared constants, sentinel errors and small helpers
// used across the eLibrary client, web and CLI layers.
package common

// AuthorizationHeaderName is the HTTP header carrying the backend token.
const AuthorizationHeaderName = "Authorization"

// AuthorizationScheme prefixes the token value in AuthorizationHeaderName.
const AuthorizationScheme = "Token"

// Local storage keys. They mirror the keys the browser front end kept in
// localStorage, so a session written by one front end reads the same way
// in another.
const (
	StorageKeyUser  = "user"
	StorageKeyToken = "token"
)

// CLINamespace is the local storage namespace used by the terminal client.
const CLINamespace = "cli"
