// Package terminal runs child processes for the terminal tool server
// under a blacklist policy, a working-directory jail and per-call
// timeouts. Nothing here is a shell: commands are exec'd directly, so a
// metacharacter in an argument is treated as an attack, not syntax.
package terminal

import (
	"os"
	"path/filepath"
	"strings"

	"agentic_accounting/pkg/core/errs"
)

// blockedCommands are binaries the server refuses outright: system
// mutators, disk tools, process killers and remote-access clients.
var blockedCommands = map[string]bool{
	"rm": true, "sudo": true, "su": true,
	"shutdown": true, "reboot": true, "halt": true, "poweroff": true,
	"mkfs": true, "dd": true, "fdisk": true,
	"mount": true, "umount": true,
	"chown": true, "chmod": true,
	"kill": true, "killall": true, "pkill": true,
	"ssh": true, "scp": true, "sftp": true, "telnet": true,
	"nc": true, "ncat": true, "netcat": true,
}

// blockedMeta are shell metacharacters with no place in exec'd arguments.
var blockedMeta = []string{";", "|", "&", "`", "$(", ">", "<", "\n"}

// Policy is the terminal server's safety configuration.
type Policy struct {
	// AllowedRoot jails working directories; resolved through symlinks
	// before comparison.
	AllowedRoot string
	// DefaultTimeoutMS applies when a call passes no timeout.
	DefaultTimeoutMS int
	// MaxOutputBytes caps captured stdout/stderr each.
	MaxOutputBytes int
	// HistoryLimit bounds the in-memory command history.
	HistoryLimit int
}

// CheckCommand applies the blacklist to the command and every argument.
// The returned error is Blocked and names the offending keyword.
func (p *Policy) CheckCommand(command string, args []string) error {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(command)))
	if base == "" {
		return errs.Validationf("command is required")
	}
	if blockedCommands[base] {
		return errs.Blockedf("command rejected (blocked_keyword: %q)", base)
	}
	for _, meta := range blockedMeta {
		if strings.Contains(command, meta) {
			return errs.Blockedf("command rejected (blocked_keyword: %q)", meta)
		}
		for _, arg := range args {
			if strings.Contains(arg, meta) {
				return errs.Blockedf("argument rejected (blocked_keyword: %q)", meta)
			}
		}
	}
	return nil
}

// ResolveWorkingDir validates the requested working directory against the
// allowed root after symlink resolution, returning the resolved path.
// Empty means the allowed root itself.
func (p *Policy) ResolveWorkingDir(requested string) (string, error) {
	root, err := filepath.EvalSymlinks(p.AllowedRoot)
	if err != nil {
		return "", errs.IOf("resolve allowed root %s: %v", p.AllowedRoot, err)
	}
	if requested == "" {
		return root, nil
	}
	if !filepath.IsAbs(requested) {
		requested = filepath.Join(root, requested)
	}
	resolved, err := filepath.EvalSymlinks(requested)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Validationf("working directory %s does not exist", requested)
		}
		return "", errs.IOf("resolve working directory %s: %v", requested, err)
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return "", errs.Blockedf("working directory %s is outside the allowed root %s", resolved, root)
	}
	return resolved, nil
}
