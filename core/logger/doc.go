// Package logger is a standardized event logging framework for the shell.
//
// Events are written as newline delimited JSON objects, each tagged with the
// session that produced it, and can be summarized into a Report.
package logger
