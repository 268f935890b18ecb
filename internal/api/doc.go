// Package api handles incoming HTTP requests, request validation and response
// formatting for the authentication endpoints. It acts as an adapter between
// HTTP clients and the auth service, translating service errors into the
// {error, code, trace_id} response shape.
package api
