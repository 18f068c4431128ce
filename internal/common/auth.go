package common

import "encoding/base64"

// BasicAuthorization encodes username and password as a Basic
// authorization value.
func BasicAuthorization(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// BearerAuthorization wraps token as a Bearer authorization value.
func BearerAuthorization(token string) string {
	return "Bearer " + token
}
