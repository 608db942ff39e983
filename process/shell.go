package process

import "strings"

// Separator returns the shell sequencing operator for goos.
// Commands are always sequenced, never short-circuited, so a failing
// `mbed target` still lets `mbed compile` report the real error.
func Separator(goos string) string {
	if goos == "windows" {
		return " & "
	}
	return "; "
}

// JoinCommandsFor joins command lines for the shell of goos.
func JoinCommandsFor(goos string, cmds ...string) string {
	return strings.Join(cmds, Separator(goos))
}

// ShellFor builds a Command that runs line through the shell of goos.
func ShellFor(goos, line, dir string) Command {
	cmd := Command{Binary: "sh", Args: []string{"-c", line}, Dir: dir, Display: line}
	if goos == "windows" {
		cmd.Binary = "cmd"
		cmd.Args = []string{"/C", line}
	}
	return cmd
}
