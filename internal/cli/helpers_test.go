package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/tmplledger/internal/testutil"
)

// testEnv runs CLI commands against one temporary SQLite database with a
// deterministic clock and record ids shared across invocations.
type testEnv struct {
	t     *testing.T
	db    string
	clock *testutil.StepClock
	ids   *testutil.SequenceIDGenerator
	env   map[string]string
	stdin io.Reader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		t:     t,
		db:    filepath.Join(t.TempDir(), "ledger.db"),
		clock: testutil.NewStepClock(),
		ids:   testutil.NewSequenceIDGenerator("rec"),
		env:   map[string]string{},
	}
}

// run executes the command with --db pointing at the test database.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	return e.runRaw(append(args, "--db", e.db)...)
}

// runRaw executes the command without adding --db.
func (e *testEnv) runRaw(args ...string) (string, string, error) {
	e.t.Helper()

	opts := &RootOptions{
		clock: e.clock,
		ids:   e.ids,
		lookupEnv: func(key string) (string, bool) {
			v, ok := e.env[key]
			return v, ok
		},
	}
	cmd := newRootCommand(opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if e.stdin != nil {
		cmd.SetIn(e.stdin)
		e.stdin = nil
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun fails the test if the command returns an error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%s: %v\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), err, stdout, stderr)
	}
	return stdout
}
