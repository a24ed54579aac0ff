// Package process launches external programs, wires pipelines through OS
// pipes, manages reversible file descriptor redirections and reaps child
// processes.
//
// Everything here operates on the real descriptor table of the calling
// process, so a Session must only be driven from one goroutine.
package process
