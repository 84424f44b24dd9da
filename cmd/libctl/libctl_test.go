package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs one libctl invocation against db and returns its stdout.
func execute(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := execute(t, db, "", args...)
	require.NoError(t, err, out)
	return out
}

func firstField(out string) string {
	return strings.Fields(out)[0]
}

func TestCirculationFromTheCommandLine(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out := mustExecute(t, db, "book", "add", "--title", "Dune", "--author", "Frank Herbert", "--copies", "2")
	bookID := firstField(out)
	assert.Contains(t, out, "Dune (2 copies)")

	out = mustExecute(t, db, "book", "list", "-q", "herbert")
	assert.Contains(t, out, bookID)

	out = mustExecute(t, db, "book", "copies", bookID)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "header plus two copies")
	copyID := firstField(lines[1])
	assert.Contains(t, lines[1], "available")

	memberID := firstField(mustExecute(t, db, "member", "add", "--name", "Ada", "--email", "ada@example.com", "--max-books", "1"))

	loanID := firstField(mustExecute(t, db, "loan", "checkout", memberID, copyID))

	out = mustExecute(t, db, "member", "status", memberID)
	assert.Contains(t, out, "Borrowed: 1/1")
	assert.Contains(t, out, "Can borrow: no (at-limit)")

	out = mustExecute(t, db, "stats")
	assert.Contains(t, out, "Active borrows")

	out = mustExecute(t, db, "loan", "checkin", loanID)
	assert.Contains(t, out, loanID+" returned")
	assert.NotContains(t, out, "Late fee")

	out = mustExecute(t, db, "sweep")
	assert.Equal(t, "0 transitioned, 0 skipped\n", out)
}

func TestCheckoutErrorsAreReported(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	_, err := execute(t, db, "", "loan", "checkout", "no-such-member", "no-such-copy")
	assert.Error(t, err)

	_, err = execute(t, db, "", "member", "set-status", "no-such-member", "suspended")
	assert.Error(t, err)
}

func TestSweepRejectsBadTime(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")
	_, err := execute(t, db, "", "sweep", "--as-of", "yesterday")
	assert.ErrorContains(t, err, "--as-of")
}

func TestLibrarianCreateReadsPasswordFromInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out, err := execute(t, db, "correct-horse-battery\ncorrect-horse-battery\n",
		"librarian", "create", "--email", "Desk@Example.com", "--name", "Front Desk")
	require.NoError(t, err, out)
	assert.Contains(t, out, "<desk@example.com>")

	_, err = execute(t, db, "correct-horse-battery\nsomething-else-entirely\n",
		"librarian", "create", "--email", "other@example.com", "--name", "Other")
	assert.ErrorContains(t, err, "do not match")

	_, err = execute(t, db, "correct-horse-battery\ncorrect-horse-battery\n",
		"librarian", "create", "--email", "desk@example.com", "--name", "Again")
	assert.Error(t, err, "duplicate email")
}

func TestReportExportWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "library.db")
	path := filepath.Join(dir, "out.xlsx")

	out := mustExecute(t, db, "report", "--out", path, "--timeframe", "all")
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err := execute(t, db, "", "report", "--timeframe", "decade")
	assert.Error(t, err)
}
