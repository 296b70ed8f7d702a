package cmd

import (
	"fmt"
	"io"
	"runtime"
)

// Set with -ldflags "-X swissdox-cli/cmd.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func versionText() string {
	return fmt.Sprintf("swissdox-cli version: %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, versionText())
}
