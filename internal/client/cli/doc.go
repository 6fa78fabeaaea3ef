// Package cli is the interactive desk client: it keeps a presence stream
// open and lets the doctor or compounder mark patients as seen.
package cli
