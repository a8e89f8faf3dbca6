// Package auth authenticates Tasklane users and authorises their requests.
//
// A request passes through four stages, each able to stop it:
//
//	token     TokenIssuer.Validate   signature, algorithm, inclusive expiry
//	identity  Resolver.Resolve       user exists and the token is their live session
//	policy    Authorize              capability predicate against user and resource
//
// Credentials are verified by CredentialStore, which answers identically for
// an unknown email and a wrong password. Passwords are Argon2id PHC strings;
// legacy bcrypt hashes still verify and are upgraded on the next login.
//
// Each user has at most one session row. Login replaces it in one
// transaction and logout deletes it, so any earlier token stops resolving
// immediately even though its signature and expiry are still good.
package auth
