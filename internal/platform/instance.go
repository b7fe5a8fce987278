// Package platform keeps a single running copy of the app per user session.
package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"strings"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	activateMessage = "activate"
	dialTimeout     = time.Second
)

// Instance holds the single-instance lock. Two copies would announce every
// command twice on the same speaker.
type Instance struct {
	listener net.Listener
	logger   *slog.Logger
}

// Acquire binds the loopback port derived from appID.
func Acquire(appID string, logger *slog.Logger) (*Instance, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listener, err := net.Listen("tcp", Address(appID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	return &Instance{listener: listener, logger: logger}, nil
}

// Serve calls onActivate whenever another copy asks this one to come forward.
// It returns when the instance is released.
func (instance *Instance) Serve(onActivate func()) {
	for {
		conn, err := instance.listener.Accept()
		if err != nil {
			return
		}
		message, err := bufio.NewReader(conn).ReadString('\n')
		_ = conn.Close()
		if err != nil {
			instance.logger.Debug("instance handshake", "error", err)
			continue
		}
		if strings.TrimSpace(message) == activateMessage && onActivate != nil {
			onActivate()
		}
	}
}

// Release frees the lock and stops Serve.
func (instance *Instance) Release() error {
	if instance == nil || instance.listener == nil {
		return nil
	}
	return instance.listener.Close()
}

// Activate asks the running copy to show itself.
func Activate(appID string) error {
	conn, err := net.DialTimeout("tcp", Address(appID), dialTimeout)
	if err != nil {
		return fmt.Errorf("reach running instance: %w", err)
	}
	defer conn.Close()
	if _, err := fmt.Fprintln(conn, activateMessage); err != nil {
		return fmt.Errorf("signal running instance: %w", err)
	}
	return nil
}

// Address returns the loopback address reserved for appID.
func Address(appID string) string {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appID))
	rangeSize := maxPort - minPort + 1
	return fmt.Sprintf("127.0.0.1:%d", minPort+int(hash.Sum32()%uint32(rangeSize)))
}
