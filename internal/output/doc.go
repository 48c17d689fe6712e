// Package output renders autocommit results for humans and for tools.
//
// Every command writes through a Printer. In human mode it uses lipgloss
// styles that switch off when stdout is not a terminal; with --json it emits
// one JSON document per call so editor integrations can parse it:
//
//	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))
//	printer.Table([]string{"PATH", "CATEGORY"}, rows)
//	printer.Error(err) // {"error": "...", "code": N} in JSON mode
//
// # Exit Codes
//
//	output.ExitSuccess     // 0: run finished (per-file failures are in the report)
//	output.ExitUserError   // 1: bad flags, missing credential
//	output.ExitSystemError // 2: git or completion service failure
//	output.ExitBusy        // 3: another commit run is already active
//
// Errors built with NewUserError, NewSystemError and NewBusyError carry the
// code used for both the JSON error body and the process exit status.
package output
