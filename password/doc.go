// Package password provides one-way credential hashing (argon2id, PHC string
// format), password policy validation, and generation of random temporary
// passwords. All operations are stateless and safe for concurrent use.
package password
