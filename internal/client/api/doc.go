// Package api is the typed REST client of the remote catalog service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering books,
//     news, library statistics, accounts (login, HEMIS SSO, profile,
//     favourites) and the admin user list.
//  2. A concrete HTTP implementation (see HTTPClient) that injects the session
//     token carried by the context, applies a per-request timeout, resolves
//     relative media references against the base URL and maps HTTP status
//     codes to sentinel errors.
//
// # Tokens
//
// The token is not stored in the client. Callers attach it per request with
// WithToken, so a single HTTPClient serves every browser session of the web
// front concurrently.
//
// # Error Handling
//
// Status codes map to the sentinels of package common:
//
//	400      -> *common.ValidationError (matches common.ErrValidation)
//	401      -> common.ErrUnauthorized
//	403      -> common.ErrForbidden
//	404      -> common.ErrNotFound
//	5xx      -> common.ErrUnavailable
//	network  -> common.ErrUnavailable (the transport error stays wrapped)
package api
