// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords are stored as PBKDF2-HMAC-SHA256 credentials in the form
// "base64(salt):base64(key)". Opaque tokens (refresh tokens) are stored as
// HMAC-SHA256 digests so a leaked table cannot be replayed.
package hash
