package common

// AuthorizationHeaderName is the gRPC metadata key carrying caller
// credentials, either "Basic <base64(user:password)>" or "Bearer <jwt>".
const AuthorizationHeaderName = "authorization"

// RequestIDHeaderName is the metadata key used to propagate a request id.
const RequestIDHeaderName = "x-request-id"
