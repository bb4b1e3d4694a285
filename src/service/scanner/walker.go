package scanner

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/justin7251/ai-code-fixer/src/config"
	"github.com/justin7251/ai-code-fixer/src/service/github"
	"github.com/justin7251/ai-code-fixer/src/service/rules"
	"github.com/justin7251/ai-code-fixer/src/util"
)

// File is one analyzable file yielded by a walk, with decoded content
type File struct {
	Path     string
	Language rules.Language
	Content  string
	SHA      string
}

// Walker enumerates a remote repository tree and fetches classifiable files.
// Each Walk call re-fetches; results are not cached between calls.
type Walker struct {
	provider github.Provider
	maxDepth int
	workers  int64
	exclude  *util.ExclusionMatcher
}

// NewWalker creates a walker over the given provider
func NewWalker(provider github.Provider, cfg config.ScannerConfig) *Walker {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}
	workers := cfg.FetchWorkers
	if workers <= 0 {
		workers = 4
	}
	dirs := rules.DefaultExcludedDirs()
	dirs = append(dirs, cfg.ExcludedDirs...)
	return &Walker{
		provider: provider,
		maxDepth: maxDepth,
		workers:  int64(workers),
		exclude:  util.NewExclusionMatcher(dirs, cfg.ExcludedFiles),
	}
}

// Walk enumerates the tree from root and returns classified files with
// their decoded content, in tree order. A failure listing the root is
// fatal; failures on nested directories or individual files are logged
// and skipped so one bad path does not abort the scan. Descent stops
// silently at the depth bound.
func (w *Walker) Walk(ctx context.Context, owner, repo, branch, root string) ([]File, error) {
	type target struct {
		path string
		lang rules.Language
	}
	var targets []target

	var list func(path string, depth int) error
	list = func(path string, depth int) error {
		entries, err := w.provider.ListDirectory(ctx, owner, repo, path, branch)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			switch entry.Type {
			case "dir":
				if w.exclude.ExcludesDir(entry.Name) {
					util.Debug("Skipping excluded directory: %s", entry.Path)
					continue
				}
				if depth+1 >= w.maxDepth {
					continue
				}
				if err := list(entry.Path, depth+1); err != nil {
					util.Warn("Skipping directory %s: %v", entry.Path, err)
				}
			case "file":
				if w.exclude.ExcludesFile(entry.Path) {
					continue
				}
				lang, ok := rules.Classify(entry.Name)
				if !ok {
					continue
				}
				targets = append(targets, target{path: entry.Path, lang: lang})
			}
		}
		return nil
	}

	// Only the root listing is fatal for the walk.
	if err := list(root, 0); err != nil {
		return nil, err
	}

	util.Debug("Walk found %d analyzable files in %s/%s", len(targets), owner, repo)

	// Fetch contents with bounded parallelism, keeping tree order.
	results := make([]*File, len(targets))
	sem := semaphore.NewWeighted(w.workers)
	var wg sync.WaitGroup

	for i, t := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, path string, lang rules.Language) {
			defer wg.Done()
			defer sem.Release(1)

			content, err := w.provider.GetFileContent(ctx, owner, repo, path, branch)
			if err != nil {
				util.Warn("Skipping file %s: %v", path, err)
				return
			}
			results[idx] = &File{
				Path:     path,
				Language: lang,
				Content:  content.Content,
				SHA:      content.SHA,
			}
		}(i, t.path, t.lang)
	}

	wg.Wait()

	files := make([]File, 0, len(results))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}
