// Package sanitizer normalizes free-form identifiers before they are validated
// and stored.
//
// All functions are idempotent. Invalid input is returned as an empty string
// rather than an error so that validation can report it as missing.
package sanitizer
