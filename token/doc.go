// Package token signs and verifies the access/refresh token pair. Tokens are
// stateless JWTs: the codec never consults storage, and revocation is layered
// on top by the revocation package.
package token
