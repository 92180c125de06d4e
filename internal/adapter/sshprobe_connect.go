package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHCredentials holds the login used for every lab router
type SSHCredentials struct {
	Username string
	Password string
	// KeyPath is an optional private key file tried before the password
	KeyPath string
	// KnownHostsPath enables host key checking; empty accepts any key
	KnownHostsPath string
}

// SSHDialer opens SSH sessions to routers
type SSHDialer struct {
	config         *ssh.ClientConfig
	port           int
	timeout        time.Duration
	commandTimeout time.Duration
}

// NewSSHDialer builds a dialer from credentials
func NewSSHDialer(creds SSHCredentials, port int, timeout, commandTimeout time.Duration) (*SSHDialer, error) {
	config, err := buildSSHConfig(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}
	config.Timeout = timeout

	if port == 0 {
		port = 22
	}
	if commandTimeout == 0 {
		commandTimeout = 30 * time.Second
	}

	return &SSHDialer{
		config:         config,
		port:           port,
		timeout:        timeout,
		commandTimeout: commandTimeout,
	}, nil
}

// buildSSHConfig creates an SSH client config from credentials. Key and
// password auth are both offered when available.
func buildSSHConfig(creds SSHCredentials) (*ssh.ClientConfig, error) {
	if creds.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	var auth []ssh.AuthMethod
	if creds.KeyPath != "" {
		keyData, err := os.ReadFile(creds.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		auth = append(auth,
			ssh.Password(creds.Password),
			ssh.KeyboardInteractive(passwordChallenge(creds.Password)),
		)
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no SSH key or password configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if creds.KnownHostsPath != "" {
		cb, err := knownhosts.New(creds.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

// passwordChallenge answers every keyboard-interactive question with the
// password, which is how XR prompts when password auth is disabled
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range answers {
			answers[i] = password
		}
		return answers, nil
	}
}

// Dial establishes an SSH connection to address
func (d *SSHDialer) Dial(ctx context.Context, address string) (Session, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(d.port))

	dialer := &net.Dialer{
		Timeout: d.timeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, d.config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	return &sshSession{
		client:  ssh.NewClient(sshConn, chans, reqs),
		timeout: d.commandTimeout,
	}, nil
}

// sshSession runs each command in its own SSH channel
type sshSession struct {
	client  *ssh.Client
	timeout time.Duration
}

// Run executes a command over SSH and returns the output
func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)

	go func() {
		output, err := session.CombinedOutput(cmd)
		done <- result{output: output, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			// XR returns non-zero for some show commands that still print
			var exitErr *ssh.ExitError
			if errors.As(r.err, &exitErr) {
				return string(r.output), nil
			}
			return "", fmt.Errorf("command failed: %w", r.err)
		}
		return string(r.output), nil
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case <-timer.C:
		_ = session.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("command timeout after %s", s.timeout)
	}
}

// Close closes the underlying connection
func (s *sshSession) Close() error {
	return s.client.Close()
}
