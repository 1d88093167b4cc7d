// Package jwt builds the short-lived RS256 request tokens that authenticate
// every call to the enable banking API, with the application id carried in
// the kid header.
package jwt
