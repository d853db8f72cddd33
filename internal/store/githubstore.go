package store

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v81/github"
)

// GitHubStore serves configs from branches of GitHub repositories through the
// REST API. Projects are named "owner/repo". Snapshots are pinned to the
// branch head commit SHA, and Save uses the Contents API file-SHA
// precondition for optimistic concurrency.
type GitHubStore struct {
	client *github.Client
}

func NewGitHubStore(client *github.Client) *GitHubStore {
	return &GitHubStore{client: client}
}

func splitProject(project string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid GitHub project %q: expected OWNER/REPO", project)
	}
	return owner, repo, nil
}

func (s *GitHubStore) branchSHA(ctx context.Context, project, branch string) (string, error) {
	owner, repo, err := splitProject(project)
	if err != nil {
		return "", err
	}
	ref, resp, err := s.client.Git.GetRef(ctx, owner, repo, "refs/heads/"+branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("resolving %s:%s: %w", project, branch, err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (s *GitHubStore) BranchExists(ctx context.Context, project, branch string) (bool, error) {
	sha, err := s.branchSHA(ctx, project, branch)
	return sha != "", err
}

func (s *GitHubStore) Snapshot(ctx context.Context, project, branch string) (Snapshot, error) {
	sha, err := s.branchSHA(ctx, project, branch)
	if err != nil || sha == "" {
		return nil, err
	}
	owner, repo, err := splitProject(project)
	if err != nil {
		return nil, err
	}
	return &githubSnapshot{client: s.client, owner: owner, repo: repo, sha: sha}, nil
}

func (s *GitHubStore) Save(ctx context.Context, project, branch, filePath, expectedRevision string, content []byte, author Author) (string, error) {
	owner, repo, err := splitProject(project)
	if err != nil {
		return "", err
	}
	sha, err := s.branchSHA(ctx, project, branch)
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrBranchMissing, project, branch)
	}

	relPath := strings.TrimPrefix(path.Clean(filePath), "/")
	opts := &github.RepositoryContentFileOptions{
		Branch: github.Ptr(branch),
	}
	if author.Name != "" || author.Email != "" {
		opts.Committer = &github.CommitAuthor{Name: github.Ptr(author.Name), Email: github.Ptr(author.Email)}
	}

	if content == nil {
		if expectedRevision == "" {
			return "", fmt.Errorf("deleting %s: expected revision is required", filePath)
		}
		opts.Message = github.Ptr("Delete " + relPath)
		opts.SHA = github.Ptr(expectedRevision)
		res, resp, err := s.client.Repositories.DeleteFile(ctx, owner, repo, relPath, opts)
		if err != nil {
			return "", mapContentsError(resp, filePath, err)
		}
		return res.GetSHA(), nil
	}

	opts.Content = content
	if expectedRevision == "" {
		opts.Message = github.Ptr("Create " + relPath)
		res, resp, err := s.client.Repositories.CreateFile(ctx, owner, repo, relPath, opts)
		if err != nil {
			return "", mapContentsError(resp, filePath, err)
		}
		return res.GetSHA(), nil
	}

	opts.Message = github.Ptr("Update " + relPath)
	opts.SHA = github.Ptr(expectedRevision)
	res, resp, err := s.client.Repositories.UpdateFile(ctx, owner, repo, relPath, opts)
	if err != nil {
		return "", mapContentsError(resp, filePath, err)
	}
	return res.GetSHA(), nil
}

func mapContentsError(resp *github.Response, filePath string, err error) error {
	if resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity) {
		return fmt.Errorf("%w: %s: %v", ErrRevisionMismatch, filePath, err)
	}
	return err
}

type githubSnapshot struct {
	client *github.Client
	owner  string
	repo   string
	sha    string
}

func (s *githubSnapshot) Revision() string {
	return s.sha
}

func (s *githubSnapshot) Load(ctx context.Context, filePath string) (*Blob, error) {
	relPath := strings.TrimPrefix(path.Clean(filePath), "/")
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, relPath, &github.RepositoryContentGetOptions{Ref: s.sha})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if file == nil {
		// The path names a directory.
		return nil, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filePath, err)
	}
	return &Blob{Path: filePath, Revision: file.GetSHA(), Content: []byte(content)}, nil
}

func (s *githubSnapshot) Files(ctx context.Context, baseName string) ([]string, error) {
	tree, _, err := s.client.Git.GetTree(ctx, s.owner, s.repo, s.sha, true)
	if err != nil {
		return nil, err
	}
	if tree.GetTruncated() {
		return nil, fmt.Errorf("listing %s/%s at %s: tree listing was truncated by the API", s.owner, s.repo, s.sha)
	}
	var out []string
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		if path.Base(e.GetPath()) == baseName {
			out = append(out, "/"+e.GetPath())
		}
	}
	sort.Strings(out)
	return out, nil
}
