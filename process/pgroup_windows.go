//go:build windows

package process

import "os/exec"

// configureProcessGroup kills the direct child on cancellation. Windows has
// no process-group signal, so grandchildren may outlive a cancelled build.
func configureProcessGroup(c *exec.Cmd) {
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return c.Process.Kill()
	}
}
