// Package api bundles the operations shared by the CLI and the monitor
// server: submitting jobs, listing them, retrying failures and clearing
// finished rows. Each operation validates its inputs and opens only the
// resources it needs.
package api
