// Package auth protects the REST surface with the web authentication token
// of the configuration.
//
// Clients present either the token itself or an HS256 JWT signed with it,
// as a bearer token, as the token query parameter or as the
// authentication_token cookie. JWTs carry scopes, so a read-only link can
// be handed out without giving away control.
package auth
