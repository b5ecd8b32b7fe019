package notify

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"
)

// TrayExecutable is the process name a tray lockfile must point at.
const TrayExecutable = "tracklet-tray"

var findProcessFunc = ps.FindProcess

// TraySink posts to a local tray app found through its lockfile. The
// lockfile holds "port|pid|secret" and is re-read on every delivery, so the
// tray can restart on a new port.
type TraySink struct {
	Lockfile string
	Client   *http.Client
}

func (t *TraySink) Deliver(n Notification) error {
	port, secret, err := readTrayLockfile(t.Lockfile)
	if err != nil {
		return err
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	return post(client, "http://127.0.0.1:"+port, secret, n)
}

func readTrayLockfile(path string) (port, secret string, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", errors.New("tray app is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("tray lockfile is malformed")
	}

	port = parts[0]
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("invalid port %q in tray lockfile", port)
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in tray lockfile")
	}
	secret = strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in tray lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("tray process not running")
	}
	if !strings.HasPrefix(process.Executable(), TrayExecutable) {
		return "", "", fmt.Errorf("process %d is not %s (is %s)", pid, TrayExecutable, process.Executable())
	}
	return port, secret, nil
}
