package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestGrepCommand(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          string
	}{
		{"/srv/utem/supermercado.csv", "2022-01", `grep -F -- '2022-01' '/srv/utem/supermercado.csv'`},
		{"/tmp/a b.csv", "2022-01", `grep -F -- '2022-01' '/tmp/a b.csv'`},
		{"/tmp/x.csv", "it's", `grep -F -- 'it'\''s' '/tmp/x.csv'`},
		{"/tmp/x.csv", "$(rm -rf /)", `grep -F -- '$(rm -rf /)' '/tmp/x.csv'`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := GrepCommand(tt.path, tt.pattern); got != tt.want {
				t.Errorf("GrepCommand = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAuthMethods_NoCredentials(t *testing.T) {
	_, err := authMethods(SSHConfig{Host: "example.com", User: "u"})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestAuthMethods_Password(t *testing.T) {
	methods, err := authMethods(SSHConfig{Password: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	if len(methods) != 2 {
		t.Errorf("methods = %d, want 2 (password + keyboard-interactive)", len(methods))
	}
}

func TestAuthMethods_MissingKeyFile(t *testing.T) {
	_, err := authMethods(SSHConfig{KeyFile: "/nonexistent/id_ed25519"})
	if err == nil {
		t.Fatal("expected error for missing key file")
	}
}

type fakeSession struct {
	out string
	cmd *string
}

func (s fakeSession) Output(cmd string) ([]byte, error) {
	if s.cmd != nil {
		*s.cmd = cmd
	}
	return []byte(s.out), nil
}
func (fakeSession) Signal(ssh.Signal) error { return nil }
func (fakeSession) Close() error            { return nil }

// fakeConn hands out sessions until broken is set.
type fakeConn struct {
	broken bool
	closed atomic.Bool
	out    string
	cmd    string
}

func (c *fakeConn) NewSession() (remoteSession, error) {
	if c.broken {
		return nil, errors.New("ssh: unexpected packet in response to channel open: <nil>")
	}
	return fakeSession{out: c.out, cmd: &c.cmd}, nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// dialSequence returns a dialFunc that serves conns in order and counts dials.
func dialSequence(dials *int, conns ...*fakeConn) dialFunc {
	return func(context.Context) (remoteConn, error) {
		if *dials >= len(conns) {
			return nil, errors.New("connection refused")
		}
		c := conns[*dials]
		*dials++
		return c, nil
	}
}

func TestSSHGateway_RedialsBrokenConnection(t *testing.T) {
	dropped := &fakeConn{broken: true}
	fresh := &fakeConn{out: "A1;Milk;\"100\";1;2022-01-05;\"FINALIZED\"\n"}
	dials := 0

	g, err := newSSHGateway(context.Background(), "h:22", dialSequence(&dials, dropped, fresh), nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := g.FetchMonth(context.Background(), "/srv/tx.csv", "2022-01")
	if err != nil {
		t.Fatalf("FetchMonth after drop = %v", err)
	}
	if got != fresh.out {
		t.Errorf("FetchMonth = %q, want %q", got, fresh.out)
	}
	if dials != 2 {
		t.Errorf("dials = %d, want 2", dials)
	}
	if !dropped.closed.Load() {
		t.Error("broken connection not closed")
	}
	if want := GrepCommand("/srv/tx.csv", "2022-01"); fresh.cmd != want {
		t.Errorf("command = %q, want %q", fresh.cmd, want)
	}

	// The fresh connection is reused.
	if _, err := g.FetchMonth(context.Background(), "/srv/tx.csv", "2022-02"); err != nil {
		t.Fatal(err)
	}
	if dials != 2 {
		t.Errorf("dials after second fetch = %d, want 2", dials)
	}
}

func TestSSHGateway_RedialFails(t *testing.T) {
	dials := 0
	g, err := newSSHGateway(context.Background(), "h:22", dialSequence(&dials, &fakeConn{broken: true}), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = g.FetchMonth(context.Background(), "/srv/tx.csv", "2022-01")
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("err = %v, want *GatewayError", err)
	}
	if gwErr.Month != "2022-01" {
		t.Errorf("Month = %q", gwErr.Month)
	}
}
