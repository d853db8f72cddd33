package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	gh "pathowners/internal/github"
	"pathowners/internal/store"
)

// openStore builds the config store selected by the source flags and returns
// it together with the project name to query.
func openStore(ctx context.Context) (store.Store, string, error) {
	switch {
	case cfg.Source.Dir != "":
		abs, err := filepath.Abs(cfg.Source.Dir)
		if err != nil {
			return nil, "", err
		}
		project := cfg.Source.Project
		if project == "" {
			project = filepath.Base(abs)
		}
		return store.NewDirStore(filepath.Dir(abs), cfg.Source.Branch), project, nil

	case cfg.Source.Git != "":
		abs, err := filepath.Abs(cfg.Source.Git)
		if err != nil {
			return nil, "", err
		}
		repo, err := git.PlainOpen(abs)
		if err != nil {
			return nil, "", fmt.Errorf("opening repository %s: %w", abs, err)
		}
		project := cfg.Source.Project
		if project == "" {
			project = strings.TrimSuffix(filepath.Base(abs), ".git")
		}
		return store.OpenRepository(project, repo), project, nil

	case cfg.Source.GitRoot != "":
		return store.NewGitStore(cfg.Source.GitRoot), cfg.Source.Project, nil

	case cfg.Source.GitHub != "":
		token, _, err := gh.ResolveAuthToken(ctx, cfg.Source.Token)
		if err != nil {
			return nil, "", fmt.Errorf("resolving GitHub auth token: %w", err)
		}
		client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose, nil))
		if err != nil {
			return nil, "", err
		}
		project := cfg.Source.Project
		if project == "" {
			project = cfg.Source.GitHub
		}
		return store.NewGitHubStore(client), project, nil
	}
	return nil, "", fmt.Errorf("no config source selected")
}
