// Package httputil provides JSON response helpers shared by all API
// handlers, including the standard error envelope.
package httputil
