package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/time/rate"
)

// SSHConfig describes how to reach the host holding the transactions file.
type SSHConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	KeyFile         string
	KnownHosts      string // defaults to ~/.ssh/known_hosts
	InsecureHostKey bool
	Timeout         time.Duration
	MaxExecPerSec   float64 // 0 disables the limit
}

// ErrNoCredentials is returned when neither a password nor a key file is set.
var ErrNoCredentials = errors.New("no SSH password or key file configured")

// remoteSession is the part of *ssh.Session a fetch uses.
type remoteSession interface {
	Output(cmd string) ([]byte, error)
	Signal(sig ssh.Signal) error
	Close() error
}

// remoteConn is an authenticated connection that opens sessions.
type remoteConn interface {
	NewSession() (remoteSession, error)
	Close() error
}

type clientConn struct {
	*ssh.Client
}

func (c clientConn) NewSession() (remoteSession, error) {
	return c.Client.NewSession()
}

type dialFunc func(ctx context.Context) (remoteConn, error)

// SSHGateway runs grep on the remote host, one session per fetch over a
// single authenticated connection. When a session cannot be opened the
// connection is dialed again once before the fetch fails.
type SSHGateway struct {
	mu      sync.Mutex
	conn    remoteConn
	dial    dialFunc
	limiter *rate.Limiter
	addr    string
}

// DialSSH connects and authenticates. The connection is reused by every
// FetchMonth call until Close.
func DialSSH(ctx context.Context, cfg SSHConfig) (*SSHGateway, error) {
	if cfg.Host == "" {
		return nil, errors.New("ssh: host is empty")
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))

	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}
	hostKey, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         timeout,
	}

	dial := func(ctx context.Context) (remoteConn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var d net.Dialer
		conn, err := d.DialContext(dialCtx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("ssh: dialing %s: %w", addr, err)
		}

		c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ssh: handshake with %s: %w", addr, err)
		}
		return clientConn{ssh.NewClient(c, chans, reqs)}, nil
	}

	var limiter *rate.Limiter
	if cfg.MaxExecPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxExecPerSec), 1)
	}
	return newSSHGateway(ctx, addr, dial, limiter)
}

func newSSHGateway(ctx context.Context, addr string, dial dialFunc, limiter *rate.Limiter) (*SSHGateway, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return &SSHGateway{conn: conn, dial: dial, limiter: limiter, addr: addr}, nil
}

func authMethods(cfg SSHConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyFile != "" {
		data, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("ssh: reading key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(data)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && cfg.Password != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(cfg.Password))
		}
		if err != nil {
			return nil, fmt.Errorf("ssh: parsing key file: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		password := cfg.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(methods) == 0 {
		return nil, ErrNoCredentials
	}
	return methods, nil
}

func hostKeyCallback(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if cfg.InsecureHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicit opt-in from config
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ssh: locating known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("ssh: loading known_hosts: %w", err)
	}
	return cb, nil
}

// FetchMonth implements Gateway.
func (g *SSHGateway) FetchMonth(ctx context.Context, remotePath, datePattern string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &GatewayError{Month: datePattern, Path: remotePath, Err: err}
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fail(err)
		}
	}

	sess, err := g.session(ctx)
	if err != nil {
		return fail(err)
	}
	defer func() { _ = sess.Close() }()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.Output(GrepCommand(remotePath, datePattern))
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return fail(ctx.Err())
	case r := <-done:
		if r.err != nil {
			// grep exits 1 when nothing matched.
			var exitErr *ssh.ExitError
			if errors.As(r.err, &exitErr) && exitErr.ExitStatus() == 1 {
				return "", nil
			}
			return fail(r.err)
		}
		return string(r.out), nil
	}
}

// session opens a session, replacing the connection once if it is broken.
// Concurrent callers that hit the same broken connection share one redial.
func (g *SSHGateway) session(ctx context.Context) (remoteSession, error) {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()

	sess, err := conn.NewSession()
	if err == nil {
		return sess, nil
	}

	g.mu.Lock()
	if g.conn == conn {
		fresh, dialErr := g.dial(ctx)
		if dialErr != nil {
			g.mu.Unlock()
			return nil, fmt.Errorf("opening session on %s: %w (redial: %v)", g.addr, err, dialErr)
		}
		_ = conn.Close()
		g.conn = fresh
	}
	conn = g.conn
	g.mu.Unlock()

	sess, err = conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session on %s: %w", g.addr, err)
	}
	return sess, nil
}

// Close closes the underlying connection.
func (g *SSHGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.Close()
}

// GrepCommand builds the remote command that selects lines of path
// containing pattern.
func GrepCommand(path, pattern string) string {
	return "grep -F -- " + shellQuote(pattern) + " " + shellQuote(path)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
