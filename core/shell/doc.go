// Package shell evaluates POSIX shell programs parsed by mvdan.cc/sh on top
// of the process package.
//
// Evaluation follows the usual order: the input is parsed into statements,
// words are expanded, redirects are applied to the shell's own descriptors,
// then a builtin runs in place or a child is started and waited for. Pipeline
// stages and subshells run in children; a subshell child is a fresh copy of
// this program that is handed the printed source of the node plus a snapshot
// of the shell variables.
//
// Field splitting, globbing, command substitution and functions aren't
// supported.
package shell
