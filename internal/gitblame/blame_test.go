package gitblame

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Worktree) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return dir, wt
}

func commitFile(t *testing.T, dir string, wt *git.Worktree, name, content, author, email string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err := wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: email, When: time.Now()},
	})
	require.NoError(t, err)
}

func TestOpen_NotARepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestPrimaryAuthor(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "main.rs", "fn main() {\n    run();\n}\n", "Alice", "alice@example.com")

	p, err := Open(dir)
	require.NoError(t, err)

	attr, err := p.PrimaryAuthor("main.rs", 1, 3)
	require.NoError(t, err)
	require.NotNil(t, attr)
	assert.Equal(t, "Alice <alice@example.com>", attr.Author)
	assert.NotEmpty(t, attr.CommitHash)
	assert.False(t, attr.Timestamp.IsZero())
}

func TestPrimaryAuthor_Plurality(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "a.rs", "line one\nline two\nline three\n", "Alice", "a@example.com")
	// Bob rewrites only the last line.
	commitFile(t, dir, wt, "a.rs", "line one\nline two\nBOB WAS HERE\n", "Bob", "b@example.com")

	p, err := Open(dir)
	require.NoError(t, err)

	attr, err := p.PrimaryAuthor("a.rs", 1, 3)
	require.NoError(t, err)
	require.NotNil(t, attr)
	assert.Equal(t, "Alice <a@example.com>", attr.Author, "Alice wrote 2 of 3 lines")
}

func TestPrimaryAuthor_EmptyRange(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "a.rs", "one\n", "Alice", "a@example.com")

	p, err := Open(dir)
	require.NoError(t, err)

	attr, err := p.PrimaryAuthor("a.rs", 10, 20)
	require.NoError(t, err)
	assert.Nil(t, attr, "out-of-range lines attribute to nobody")
}

func TestHeadCommit(t *testing.T) {
	dir, wt := initRepo(t)
	commitFile(t, dir, wt, "a.rs", "one\n", "Alice", "a@example.com")

	p, err := Open(dir)
	require.NoError(t, err)

	head, err := p.HeadCommit()
	require.NoError(t, err)
	assert.Len(t, head, 40)
}
