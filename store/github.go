package store

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/google/go-github/v66/github"

	models "github.com/phillip/chama-tracker-go/models"
)

// GitHub keeps data.json in a repository through the contents API. The blob
// sha returned by the API is the precondition for every update.
type GitHub struct {
	client  *github.Client
	owner   string
	repo    string
	path    string
	branch  string
	message string
}

type GitHubOptions struct {
	Token         string
	Owner         string
	Repo          string
	Path          string
	Branch        string
	CommitMessage string
}

func NewGitHub(opts GitHubOptions) *GitHub {
	client := github.NewClient(nil)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	return newGitHubWithClient(client, opts)
}

func newGitHubWithClient(client *github.Client, opts GitHubOptions) *GitHub {
	msg := opts.CommitMessage
	if msg == "" {
		msg = "Update " + path.Base(opts.Path)
	}
	return &GitHub{
		client:  client,
		owner:   opts.Owner,
		repo:    opts.Repo,
		path:    opts.Path,
		branch:  opts.Branch,
		message: msg,
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) Load(ctx context.Context) (*Snapshot, error) {
	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, g.path, g.ref())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return emptySnapshot(), nil
		}
		return nil, fmt.Errorf("github get %s: %w", g.path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("github get %s: path is a directory", g.path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github decode %s: %w", g.path, err)
	}
	doc, err := Decode([]byte(content))
	if err != nil {
		return nil, err
	}
	return &Snapshot{Document: doc, SHA: file.GetSHA(), Exists: true}, nil
}

func (g *GitHub) Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(g.message),
		Content: data,
	}
	if g.branch != "" {
		opts.Branch = github.String(g.branch)
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
	)
	if expectedSHA == "" {
		res, resp, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, g.path, opts)
	} else {
		opts.SHA = github.String(expectedSHA)
		res, resp, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, g.path, opts)
	}
	if err != nil {
		// 409: stale sha, 422: create over an existing file
		if resp != nil && (resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("github put %s: %w", g.path, err)
	}
	if res == nil || res.Content == nil {
		return ContentSHA(data), nil
	}
	return res.Content.GetSHA(), nil
}

func (g *GitHub) List(ctx context.Context) ([]FileInfo, error) {
	dir := path.Dir(g.path)
	if dir == "." {
		dir = ""
	}
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, dir, g.ref())
	if err != nil {
		return nil, fmt.Errorf("github list %q: %w", dir, err)
	}
	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.GetType() != "file" {
			continue
		}
		files = append(files, FileInfo{
			Name: e.GetName(),
			Path: e.GetPath(),
			Size: int64(e.GetSize()),
			SHA:  e.GetSHA(),
		})
	}
	return files, nil
}

func (g *GitHub) ref() *github.RepositoryContentGetOptions {
	if g.branch == "" {
		return nil
	}
	return &github.RepositoryContentGetOptions{Ref: g.branch}
}
