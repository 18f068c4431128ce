// Package cli provides the userdir admin command-line client.
//
// A single command can be given on the command line:
//
//	cli -a 127.0.0.1:50051 -u admin create alice
//
// Without a command the client starts an interactive prompt that accepts the
// same commands. The operator password is asked for once, on the first call
// that reaches the server, and never echoed.
//
// Commands: list, get, create, update, delete, verify, hash, help, exit.
package cli
