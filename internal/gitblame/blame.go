// Package gitblame implements the engine's blame contract on top of
// go-git: primary_author(file, line range) -> (author, timestamp,
// commit). Blame failures are never fatal; callers store locations
// without attribution instead.
package gitblame

import (
	"fmt"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"

	kgerrors "github.com/Aman-CERP/codegraph/internal/errors"
)

// Attribution identifies who wrote the plurality of lines in a range.
type Attribution struct {
	Author     string // "Name <email>"
	CommitHash string
	Timestamp  time.Time
}

// Provider is the blame interface the indexing pipeline consumes.
type Provider interface {
	// PrimaryAuthor returns the plurality author of a line range, or nil
	// when the provider cannot attribute it.
	PrimaryAuthor(path string, lineStart, lineEnd int) (*Attribution, error)

	// HeadCommit returns the hash of the current HEAD commit.
	HeadCommit() (string, error)
}

// GitProvider reads attribution from a git repository. Blame results are
// cached per file for the lifetime of an index run.
type GitProvider struct {
	repo *git.Repository

	mu    sync.Mutex
	cache map[string]*git.BlameResult
}

var _ Provider = (*GitProvider)(nil)

// Open opens the repository at root.
func Open(root string) (*GitProvider, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, kgerrors.External("open repository", err)
	}
	return &GitProvider{
		repo:  repo,
		cache: make(map[string]*git.BlameResult),
	}, nil
}

// HeadCommit returns the current HEAD hash.
func (p *GitProvider) HeadCommit() (string, error) {
	head, err := p.repo.Head()
	if err != nil {
		return "", kgerrors.External("resolve HEAD", err)
	}
	return head.Hash().String(), nil
}

// PrimaryAuthor blames the file and returns the author who wrote the
// plurality of lines in [lineStart, lineEnd]. Returns nil without error
// when the range has no attributable lines.
func (p *GitProvider) PrimaryAuthor(path string, lineStart, lineEnd int) (*Attribution, error) {
	blame, err := p.blameFile(path)
	if err != nil {
		return nil, err
	}

	if lineStart < 1 {
		lineStart = 1
	}
	if lineEnd > len(blame.Lines) {
		lineEnd = len(blame.Lines)
	}
	if lineStart > lineEnd {
		return nil, nil
	}

	type tally struct {
		count int
		line  *git.Line
	}
	counts := make(map[string]*tally)

	for i := lineStart - 1; i < lineEnd; i++ {
		line := blame.Lines[i]
		if line == nil {
			continue
		}
		key := authorString(line)
		if t, ok := counts[key]; ok {
			t.count++
		} else {
			counts[key] = &tally{count: 1, line: line}
		}
	}

	var best *tally
	var bestKey string
	for key, t := range counts {
		if best == nil || t.count > best.count || (t.count == best.count && key < bestKey) {
			best = t
			bestKey = key
		}
	}
	if best == nil {
		return nil, nil
	}

	return &Attribution{
		Author:     bestKey,
		CommitHash: best.line.Hash.String(),
		Timestamp:  best.line.Date.UTC(),
	}, nil
}

func (p *GitProvider) blameFile(path string) (*git.BlameResult, error) {
	p.mu.Lock()
	if cached, ok := p.cache[path]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	head, err := p.repo.Head()
	if err != nil {
		return nil, kgerrors.External("resolve HEAD", err)
	}
	commit, err := p.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, kgerrors.External("load HEAD commit", err)
	}

	blame, err := git.Blame(commit, path)
	if err != nil {
		return nil, kgerrors.External("blame "+path, err)
	}

	p.mu.Lock()
	p.cache[path] = blame
	p.mu.Unlock()
	return blame, nil
}

func authorString(line *git.Line) string {
	if line.AuthorName != "" && line.Author != "" {
		return fmt.Sprintf("%s <%s>", line.AuthorName, line.Author)
	}
	if line.AuthorName != "" {
		return line.AuthorName
	}
	return line.Author
}
