// Package google implements the credential side of the bridge: OAuth scope
// definitions, the session token store, and the Resolver that turns an opaque
// session id plus a required scope into a valid, non-expired access token.
package google
