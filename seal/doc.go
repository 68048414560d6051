// Package seal wraps session keys in signed tokens so a tampered or forged
// cookie is rejected before the session store is consulted.
//
// Tokens are compact JWTs with a single "sid" claim. The session's lifetime is
// owned by the store, so tokens carry no expiry; revoking the session revokes
// every token naming it. HS256 suits a single service holding the secret.
// Ed25519 lets other services verify tokens with only the public key.
package seal
