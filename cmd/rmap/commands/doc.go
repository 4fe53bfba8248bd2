// Package commands implements the rmap client CLI.
package commands
