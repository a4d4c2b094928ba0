package ui

import (
	"io"
	"os"
	"os/exec"
	"strings"
)

// PagerOptions controls ToPager.
type PagerOptions struct {
	NoPager bool // --no-pager
}

// pagerArgv is CFU_PAGER, then PAGER, then less, split into arguments.
func pagerArgv() []string {
	for _, key := range []string{"CFU_PAGER", "PAGER"} {
		if argv := strings.Fields(os.Getenv(key)); len(argv) > 0 {
			return argv
		}
	}
	return []string{"less"}
}

func pagerEnabled(opts PagerOptions) bool {
	return !opts.NoPager && os.Getenv("CFU_NO_PAGER") == "" && IsTerminal()
}

// ToPager writes content to w, or through the user's pager when stdout is a
// terminal. less is told to exit by itself when content fits one screen.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	if !pagerEnabled(opts) {
		_, err := io.WriteString(w, content)
		return err
	}

	argv := pagerArgv()
	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 - user-configured pager
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	cmd.Env = os.Environ()
	if _, ok := os.LookupEnv("LESS"); !ok {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	return cmd.Run()
}
