// Package logging builds the application logger. Events are written as
// "[yyyy-MM-dd HH:mm:ss] LEVEL message" lines to a bounded ring file that
// keeps only the most recent lines, optionally mirrored to the console.
package logging
