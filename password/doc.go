// Package password hashes and verifies login passwords with Argon2id.
//
// Hashes are PHC strings with standard (padded) base64 salt and key:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports whether a stored hash was produced with weaker
// parameters than the current [Config], so callers can re-hash after a successful
// login.
//
// The package owns hashing only. It never stores credentials and does not import any
// other goSession package.
package password
