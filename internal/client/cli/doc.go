// Package cli provides the interactive reportkeeper command-line client.
//
// It unlocks the sealed identity with the user's password, arms the
// inactivity timer, verifies the desktop-linked key file, starts a
// background connectivity watcher and runs a REPL. Network commands (ping,
// token, resend) return at once; their outcomes are printed when they
// arrive. When the session locks the identity is wiped from memory and only
// help, unlock and exit are accepted until the password is entered again.
package cli
