// Package errors provides standardized error definitions for the chatrelay
// system. All error definitions are centralized here to ensure consistency
// across the relay core, transport, and console components.
package errors
