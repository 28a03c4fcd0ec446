package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NormalizeListenAddr accepts a bare port ("3000"), a port with colon
// (":3000") or a full host:port and returns an address for net.Listen.
func NormalizeListenAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("listen address must not be empty")
	}

	if !strings.Contains(addr, ":") {
		if err := validatePort(addr); err != nil {
			return "", err
		}
		return ":" + addr, nil
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if err := validatePort(port); err != nil {
		return "", err
	}
	return addr, nil
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q: not a number", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", n)
	}
	return nil
}
