// Package logger builds the structured application logger for forkshell from
// its configuration and summarizes the JSON logs it writes.
package logger
