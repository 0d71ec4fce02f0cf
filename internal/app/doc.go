// Package app wires the settings, logger, history store, external tool and
// download service into one explicit context object passed to commands.
package app
