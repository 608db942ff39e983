// Package process runs the external tools a firmware build drives: git, npm,
// python, pip and the mbed CLI.
//
// Commands run in their own process group. Cancelling the context sends
// SIGTERM to the whole group and SIGKILL after the grace period. A non-zero
// exit is reported as an EXTERNAL_PROCESS AppError carrying the tail of the
// combined output.
package process
