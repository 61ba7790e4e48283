// Package api defines the request and response messages of the tripsplit
// Connect services. Messages are encoded as JSON; amounts travel as decimal
// strings in the server's configured currency.
//
// Struct tags drive both the wire names and request validation.
package api
