// Package services implements the client side of the practice tracker REST API.
//
// # Raw API
//
// [APIService] sends requests with the stored session cookie and an X-Request-ID header.
// It is used directly by the `api` debugging commands and underneath [Backend].
//
// # Typed Backend
//
// [Backend] implements [Service], one method per endpoint, decoding into [models] types.
// Mutations return only an error; callers reload the affected list instead of patching
// local state.
//
// # Error Handling
//
// Every failure falls in one of three classes:
//   - [shared.ErrTransport] : the server could not be reached or the body could not be read
//   - [*APIError] (unwraps to [shared.ErrAPIRequest]) : non-2xx status, with the server's
//     "error" text or a generic fallback in Message
//   - [shared.ErrNotAuthenticated] : 401 from any request; the unauthorized hook installed
//     with [WithUnauthorized] runs before the error is returned
//
// Nothing is retried.
package services
