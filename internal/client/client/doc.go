// Package client is the gRPC client side of the userdir directory service.
// It attaches operator credentials to every call and translates status
// codes into the errors of this package.
package client
