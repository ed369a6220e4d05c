package dictprotocol

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/csdict/csdict/dictprotocol/dicttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordnet() dicttest.Database {
	return dicttest.Database{
		Name:        "wn",
		Description: "WordNet (r) 3.0 (2006)",
		Entries: map[string]string{
			"hello": "hello\n    n 1: an expression of greeting",
			"help":  "help\n    n 1: the activity of contributing",
		},
	}
}

func startDictServer(t *testing.T, banner string, dbs ...dicttest.Database) *dicttest.Server {
	t.Helper()
	srv, err := dicttest.NewServerWithBanner(banner, dicttest.NewDictionaryHandler(dbs...))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestSessionAgainstServer(t *testing.T) {
	srv := startDictServer(t, dicttest.DefaultBanner, wordnet())

	var stdout, stderr bytes.Buffer
	s := NewSession(SessionConfig{Stdout: &stdout, Stderr: &stderr})
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, fmt.Sprintf("open %s %d", srv.Host(), srv.Port())))
	require.Equal(t, Connected, s.State())
	assert.Empty(t, stdout.String(), "banner is a status line")

	require.NoError(t, s.Execute(ctx, "dict"))
	assert.Equal(t, "wn \"WordNet (r) 3.0 (2006)\"\n.\n", stdout.String())

	stdout.Reset()
	require.NoError(t, s.Execute(ctx, "set wn"))
	require.NoError(t, s.Execute(ctx, "define hello"))
	assert.Equal(t,
		"@ wn \"WordNet (r) 3.0 (2006)\"\nhello\n    n 1: an expression of greeting\n.\n",
		stdout.String())

	stdout.Reset()
	require.NoError(t, s.Execute(ctx, "define hel"))
	assert.Equal(t,
		"***No definition found***\nwn \"hello\"\nwn \"help\"\n.\n",
		stdout.String())

	stdout.Reset()
	require.NoError(t, s.Execute(ctx, "prefixmatch hel"))
	assert.Equal(t, "wn \"hello\"\nwn \"help\"\n.\n", stdout.String())

	require.NoError(t, s.Execute(ctx, "close"))
	assert.Equal(t, Disconnected, s.State())
	assert.Empty(t, stderr.String())

	require.Eventually(t, func() bool {
		return len(srv.Requests()) == 6
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{
		"show db",
		"DEFINE wn hello",
		"DEFINE wn hel",
		"MATCH * . hel",
		"MATCH wn prefix hel",
		"quit",
	}, srv.Requests())
}

func TestSessionDebugOpen(t *testing.T) {
	srv := startDictServer(t, dicttest.DefaultBanner, wordnet())

	var stdout bytes.Buffer
	s := NewSession(SessionConfig{Stdout: &stdout, Debug: true})
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, fmt.Sprintf("open %s %d", srv.Host(), srv.Port())))
	assert.Equal(t,
		fmt.Sprintf("--> OPEN %s %d\n<-- %s\n", srv.Host(), srv.Port(), dicttest.DefaultBanner),
		stdout.String())

	stdout.Reset()
	assert.ErrorIs(t, s.Execute(ctx, "quit"), ErrQuit)
	assert.Equal(t, "--> quit\n<-- 221 bye\n", stdout.String())
}

func TestSessionRejectsNonDictServer(t *testing.T) {
	srv := startDictServer(t, "SSH-2.0-OpenSSH_9.6")

	var stdout, stderr bytes.Buffer
	s := NewSession(SessionConfig{Stdout: &stdout, Stderr: &stderr})

	require.NoError(t, s.Execute(context.Background(), fmt.Sprintf("open %s %d", srv.Host(), srv.Port())))
	assert.Equal(t, Disconnected, s.State())
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6\n", stdout.String())
	assert.Equal(t,
		"999 Processing error. Server may not be running a DICT server. Closing connection.\n",
		stderr.String())

	require.Eventually(t, func() bool {
		reqs := srv.Requests()
		return len(reqs) == 1 && reqs[0] == "quit"
	}, time.Second, 10*time.Millisecond)
}

func TestSessionRejectsStatusBanner(t *testing.T) {
	srv := startDictServer(t, "530 access denied")

	var stdout, stderr bytes.Buffer
	s := NewSession(SessionConfig{Stdout: &stdout, Stderr: &stderr, Debug: true})

	require.NoError(t, s.Execute(context.Background(), fmt.Sprintf("open %s %d", srv.Host(), srv.Port())))
	assert.Equal(t, Disconnected, s.State())
	assert.Equal(t,
		fmt.Sprintf("--> OPEN %s %d\n<-- 530 access denied\n--> quit\n<-- 221 bye\n", srv.Host(), srv.Port()),
		stdout.String())
	assert.Equal(t,
		"999 Processing error. Server may not be running a DICT server. Closing connection.\n",
		stderr.String())

	require.Eventually(t, func() bool {
		reqs := srv.Requests()
		return len(reqs) == 1 && reqs[0] == "quit"
	}, time.Second, 10*time.Millisecond)
}

func TestSessionDefaultPort(t *testing.T) {
	srv := startDictServer(t, dicttest.DefaultBanner)

	s := NewSession(SessionConfig{DefaultPort: srv.Port()})
	require.NoError(t, s.Execute(context.Background(), "open "+srv.Host()))
	assert.Equal(t, Connected, s.State())

	require.NoError(t, s.Execute(context.Background(), "open "+srv.Host()))
	assert.Equal(t, Connected, s.State(), "second open is rejected by the gate")
	s.Abandon()
}
