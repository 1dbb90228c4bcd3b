// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/AleutianAI/sara/services/sara/model"
)

// RefKind classifies a textual git ref.
type RefKind int

const (
	RefHead RefKind = iota
	RefBranch
	RefTag
	RefCommit
)

// GitRef is a parsed revision argument.
type GitRef struct {
	Kind RefKind
	Name string
}

// ParseGitRef classifies s.
//
// "HEAD" (any case) is RefHead. "refs/heads/x" and "refs/tags/x" are a
// branch and a tag. A hex string of at least 7 characters is a commit,
// possibly abbreviated. Anything else is tried as a branch, then a tag.
func ParseGitRef(s string) GitRef {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "head"):
		return GitRef{Kind: RefHead, Name: "HEAD"}
	case strings.HasPrefix(s, "refs/heads/"):
		return GitRef{Kind: RefBranch, Name: strings.TrimPrefix(s, "refs/heads/")}
	case strings.HasPrefix(s, "refs/tags/"):
		return GitRef{Kind: RefTag, Name: strings.TrimPrefix(s, "refs/tags/")}
	case len(s) >= 7 && isHex(s):
		return GitRef{Kind: RefCommit, Name: s}
	default:
		return GitRef{Kind: RefBranch, Name: s}
	}
}

// String returns the ref as a user would type it.
func (r GitRef) String() string {
	return r.Name
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// GitReader reads records from committed snapshots.
//
// Thread Safety: Not safe for concurrent use; go-git object access on a
// single repository is serialized by the caller.
type GitReader struct {
	repo   *git.Repository
	root   string
	filter Filter
	cache  RecordCache
	logger *slog.Logger
}

// GitOption configures a GitReader.
type GitOption func(*GitReader)

// WithGitFilter sets the include/exclude filter.
func WithGitFilter(f Filter) GitOption {
	return func(r *GitReader) {
		r.filter = f
	}
}

// WithGitCache enables the record cache.
func WithGitCache(c RecordCache) GitOption {
	return func(r *GitReader) {
		r.cache = c
	}
}

// WithGitLogger sets the logger.
func WithGitLogger(l *slog.Logger) GitOption {
	return func(r *GitReader) {
		if l != nil {
			r.logger = l
		}
	}
}

// OpenGit opens the repository whose root is path.
func OpenGit(path string, opts ...GitOption) (*GitReader, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, wrapOpenError(path, err)
	}
	return newGitReader(repo, path, opts)
}

// DiscoverGit opens the repository containing path, searching parent
// directories for the .git directory.
func DiscoverGit(path string, opts ...GitOption) (*GitReader, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, wrapOpenError(path, err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return newGitReader(repo, root, opts)
}

// IsGitRepository reports whether path lies inside a git repository.
func IsGitRepository(path string) bool {
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

func newGitReader(repo *git.Repository, root string, opts []GitOption) (*GitReader, error) {
	r := &GitReader{repo: repo, root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.filter.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func wrapOpenError(path string, err error) error {
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("%w: %s", ErrNotGitRepository, path)
	}
	return fmt.Errorf("opening repository %s: %w", path, err)
}

// Root returns the repository's working tree root.
func (r *GitReader) Root() string {
	return r.root
}

// ResolveRef resolves a revision argument to a commit.
//
// Description:
//
//	Accepts HEAD, branch names, tag names (lightweight or annotated),
//	full refs, and full or abbreviated commit hashes. Bare names are
//	tried as a branch, then as a tag, then as a revision expression
//	such as HEAD~1.
//
// Outputs:
//
//	*object.Commit - The resolved commit.
//	error - ErrRefNotFound wrapped with the ref.
func (r *GitReader) ResolveRef(ref string) (*object.Commit, error) {
	parsed := ParseGitRef(ref)

	var (
		hash plumbing.Hash
		err  error
	)
	switch parsed.Kind {
	case RefHead:
		var head *plumbing.Reference
		if head, err = r.repo.Head(); err == nil {
			hash = head.Hash()
		}
	case RefCommit:
		var h *plumbing.Hash
		if h, err = r.repo.ResolveRevision(plumbing.Revision(parsed.Name)); err == nil {
			hash = *h
		}
	case RefTag:
		hash, err = r.referenceHash(plumbing.NewTagReferenceName(parsed.Name))
	default:
		hash, err = r.referenceHash(plumbing.NewBranchReferenceName(parsed.Name))
		if err != nil {
			hash, err = r.referenceHash(plumbing.NewTagReferenceName(parsed.Name))
		}
		if err != nil {
			// Revision expressions such as HEAD~1 or main^.
			var h *plumbing.Hash
			if h, err = r.repo.ResolveRevision(plumbing.Revision(parsed.Name)); err == nil {
				hash = *h
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRefNotFound, ref)
	}

	commit, err := r.peel(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrRefNotFound, ref, err)
	}
	return commit, nil
}

func (r *GitReader) referenceHash(name plumbing.ReferenceName) (plumbing.Hash, error) {
	ref, err := r.repo.Reference(name, true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// peel returns the commit at hash, following annotated tags.
func (r *GitReader) peel(hash plumbing.Hash) (*object.Commit, error) {
	commit, err := r.repo.CommitObject(hash)
	if err == nil {
		return commit, nil
	}
	tag, tagErr := r.repo.TagObject(hash)
	if tagErr != nil {
		return nil, err
	}
	return tag.Commit()
}

// MarkdownFiles lists the selected files in the commit's tree, sorted.
func (r *GitReader) MarkdownFiles(commit *object.Commit) ([]string, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}

	var files []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if r.filter.Match(f.Name) {
			files = append(files, f.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking tree: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

// Records parses every selected file of the snapshot at ref.
//
// Description:
//
//	Resolves ref, reads each selected file from the commit tree and
//	parses it. Every record's source carries the reader's root as the
//	repository and ref as the git ref. Failures follow the scanner's
//	rules: logged and skipped unless no file parsed.
//
// Inputs:
//
//	ctx - Cancels parsing.
//	ref - A revision accepted by ResolveRef.
//
// Outputs:
//
//	[]model.Record - Records ordered by path.
//	error - ErrRefNotFound, ErrAllFilesFailed, or a tree read failure.
func (r *GitReader) Records(ctx context.Context, ref string) ([]model.Record, error) {
	commit, err := r.ResolveRef(ref)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}
	files, err := r.MarkdownFiles(commit)
	if err != nil {
		return nil, err
	}

	// Blobs are read up front; go-git object storage is not shared
	// across the parse workers.
	docs := make([]document, 0, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := tree.File(name)
		var content []byte
		if err == nil {
			var s string
			s, err = f.Contents()
			content = []byte(s)
		}
		docs = append(docs, document{
			repository: r.root,
			path:       name,
			ref:        ref,
			load: func() ([]byte, error) {
				if err != nil {
					return nil, fmt.Errorf("reading %s at %s: %w", name, ref, err)
				}
				return content, nil
			},
		})
	}

	records, err := parseDocuments(ctx, docs, runtime.NumCPU(), r.cache, r.logger)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("read git snapshot",
		slog.String("ref", ref),
		slog.String("commit", commit.Hash.String()),
		slog.Int("files", len(files)),
		slog.Int("records", len(records)))
	return records, nil
}
