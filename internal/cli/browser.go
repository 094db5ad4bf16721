package cli

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// systemBrowser opens URLs with the platform's default browser. When
// that fails the session manager keeps waiting and the URL is printed
// for the user to open by hand.
type systemBrowser struct{}

func (systemBrowser) Open(url string) error {
	fmt.Fprintf(os.Stderr, "Please open this URL in your browser to authorize the application:\n\n%s\n\n", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
