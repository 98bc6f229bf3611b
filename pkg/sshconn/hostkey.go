package sshconn

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// tofuCallback returns a HostKeyCallback implementing trust-on-first-use:
// a host not yet present in path is pinned by appending its presented key,
// every subsequent connection is verified strictly against the pinned
// fingerprint via knownhosts.
func tofuCallback(path string) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		expanded, err := expandHome(path)
		if err != nil {
			return err
		}

		verify, err := knownhosts.New(expanded)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("sshconn: loading known_hosts: %w", err)
			}
			return pinHostKey(expanded, hostname, key)
		}

		err = verify(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			// Host has no entry yet; pin this key.
			return pinHostKey(expanded, hostname, key)
		}
		// Host has a DIFFERENT pinned key on file: reject.
		return fmt.Errorf("%w: %v", ErrHostKeyMismatch, err)
	}
}

func pinHostKey(path, hostname string, key ssh.PublicKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("sshconn: creating known_hosts dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("sshconn: opening known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("sshconn: pinning host key: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
