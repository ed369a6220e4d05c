package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csdict/csdict/dictprotocol/dicttest"
	"github.com/csdict/csdict/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		ok    bool
		debug bool
		out   string
	}{
		{"none", nil, true, false, ""},
		{"debug", []string{"-d"}, true, true, "Debugging output enabled\n"},
		{"unknown option", []string{"-x"}, false, false,
			"997 Invalid command line option - Only -d is allowed\n"},
		{"debug is case sensitive", []string{"-D"}, false, false,
			"997 Invalid command line option - Only -d is allowed\n"},
		{"too many", []string{"-d", "-d"}, false, false,
			"996 Too many command line options - Only -d is allowed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args, ok := parseArguments(tt.argv, &out)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.debug, args.debug)
			assert.Equal(t, tt.out, out.String())
		})
	}
}

func TestInterruptWritesToGivenStream(t *testing.T) {
	var out bytes.Buffer
	var order []string

	interrupt(&out, func() {
		order = append(order, "cleanup:"+out.String())
	})

	assert.Equal(t, "\n", out.String())
	assert.Equal(t, []string{"cleanup:\n"}, order, "newline is written before cleanup runs")
}

func TestSignalHandlerStopWithoutSignal(t *testing.T) {
	var out bytes.Buffer
	stop := setupSignalHandler(&out, func() { t.Error("cleanup ran without a signal") })
	stop()

	assert.Empty(t, out.String())
}

// useConfig points CSDICT_CONFIG at a fresh file with logging sent to a
// temporary file.
//
// GO CONCEPT: t.Setenv and t.TempDir
// ----------------------------------
// Both register their own cleanup: the variable is restored and the
// directory removed when the test ends, even if it fails half way. t.Setenv
// also marks the test as incompatible with t.Parallel, since the
// environment is process-wide.
func useConfig(t *testing.T, port int) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "csdict.yaml")
	body := fmt.Sprintf(`connection:
  default_port: %d
  connect_timeout: 2s
shell:
  history_file: %s
logging:
  level: debug
  format: json
  output_path: %s
`, port, filepath.Join(dir, "history"), filepath.Join(dir, "csdict.log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv(config.EnvConfigPath, path)
}

// pipedStdin returns a non-terminal stdin that yields input then EOF.
func pipedStdin(t *testing.T, input string) *os.File {
	t.Helper()
	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })

	_, err = writer.WriteString(input)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return reader
}

func TestRunStopsOnBadOptions(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-v"}, pipedStdin(t, "open localhost\n"), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "997 Invalid command line option - Only -d is allowed\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))
	t.Setenv(config.EnvConfigPath, path)

	var stdout, stderr bytes.Buffer
	code := run(nil, pipedStdin(t, ""), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: Failed to load configuration")
}

func TestRunSession(t *testing.T) {
	srv, err := dicttest.NewServer(dicttest.NewDictionaryHandler(dicttest.Database{
		Name:        "wn",
		Description: "WordNet (r) 3.0 (2006)",
		Entries:     map[string]string{"hello": "hello\n    n 1: an expression of greeting"},
	}))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	useConfig(t, srv.Port())

	input := "# look up a word\n\nopen " + srv.Host() + "\ndefine hello\nquit\ncurrdict\n"
	var stdout, stderr bytes.Buffer
	code := run(nil, pipedStdin(t, input), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t,
		"csdict> csdict> csdict> csdict> @ wn \"WordNet (r) 3.0 (2006)\"\nhello\n    n 1: an expression of greeting\n.\ncsdict> ",
		stdout.String(), "nothing runs after quit")
	assert.Empty(t, stderr.String())

	assert.Eventually(t, func() bool {
		reqs := srv.Requests()
		return len(reqs) == 2 && reqs[0] == "DEFINE * hello" && reqs[1] == "quit"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunDebugTrace(t *testing.T) {
	srv, err := dicttest.NewServer(dicttest.NewDictionaryHandler())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	useConfig(t, srv.Port())

	input := fmt.Sprintf("open %s %d\n^D\n", srv.Host(), srv.Port())
	var stdout, stderr bytes.Buffer
	code := run([]string{"-d"}, pipedStdin(t, input), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t,
		"Debugging output enabled\n"+
			"csdict> "+fmt.Sprintf("--> OPEN %s %d\n", srv.Host(), srv.Port())+
			"<-- "+dicttest.DefaultBanner+"\n"+
			"csdict> --> quit\n<-- 221 bye\n",
		stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRunEndOfInputAbandonsConnection(t *testing.T) {
	srv, err := dicttest.NewServer(dicttest.NewDictionaryHandler())
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	useConfig(t, srv.Port())

	var stdout, stderr bytes.Buffer
	code := run(nil, pipedStdin(t, "open "+srv.Host()+"\n"), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())

	// the socket is dropped without a quit request
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, srv.Requests())
}
