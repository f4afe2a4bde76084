package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/luminartech/dev-tools/internal/config"
	"github.com/luminartech/dev-tools/internal/git"
	f "github.com/luminartech/dev-tools/pkg/functional"
	"github.com/luminartech/dev-tools/pkg/ownership"
)

// FileLister yields the version-control-tracked paths of a repository.
type FileLister interface {
	TrackedFiles() ([]string, error)
}

// Config holds the configuration of one check or query run. When
// ChangedFiles is empty and DiffBase is set, the changed-file set is
// computed from 'git diff DiffBase...HEAD' with the repository's ignored
// directories filtered out.
type Config struct {
	RepoDir         string
	CodeownersPath  string
	CodeownersOwner string
	ChangedFiles    []string
	DiffBase        string
	Verbose         bool
	InfoBuffer      io.Writer
	WarningBuffer   io.Writer
}

// App wires the ownership engine to its collaborators: the repository
// config, the git file lister, and the report writers.
type App struct {
	Conf   *config.Config
	config *Config
	lister FileLister
}

// New creates a new App instance with the given configuration
func New(cfg Config) (*App, error) {
	if cfg.RepoDir == "" {
		return nil, fmt.Errorf("repository directory is required")
	}
	if cfg.InfoBuffer == nil {
		cfg.InfoBuffer = io.Discard
	}
	if cfg.WarningBuffer == nil {
		cfg.WarningBuffer = io.Discard
	}

	conf, err := config.ReadConfig(cfg.RepoDir)
	if err != nil {
		fmt.Fprintln(cfg.WarningBuffer, "Error reading devtools.toml - using default config")
	}
	if cfg.CodeownersPath == "" {
		cfg.CodeownersPath = conf.CodeownersPath
	}
	if cfg.CodeownersOwner == "" {
		cfg.CodeownersOwner = conf.CodeownersOwner
	}
	if len(cfg.ChangedFiles) == 0 && cfg.DiffBase != "" {
		changed, err := git.ChangedFiles(git.DiffContext{
			Base:       cfg.DiffBase,
			Head:       "HEAD",
			Dir:        cfg.RepoDir,
			IgnoreDirs: conf.Ignore,
		})
		if err != nil {
			return nil, err
		}
		cfg.ChangedFiles = changed
	}

	return &App{
		Conf:   conf,
		config: &cfg,
		lister: git.NewRepo(cfg.RepoDir),
	}, nil
}

func (a *App) printDebug(format string, args ...interface{}) {
	if a.config.Verbose {
		_, _ = fmt.Fprintf(a.config.InfoBuffer, format, args...)
	}
}

func (a *App) printWarn(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.config.WarningBuffer, format, args...)
}

// RunChecks performs every CODEOWNERS check - pattern existence, the rule
// audit, and (when a codeowners-owner is configured) the team-ownership
// check - and returns the combined result. Content violations never abort
// the run; only structural errors (missing file, path outside the repo) do.
func (a *App) RunChecks() (ownership.CheckResult, error) {
	ownersIndex, err := ownership.New(a.config.RepoDir, a.config.CodeownersPath)
	if err != nil {
		return ownership.Success, err
	}
	a.printDebug("Parsed %d ownership rules\n", len(ownersIndex.Rules()))

	result := ownership.CheckPatternsExist(os.DirFS(a.config.RepoDir), ownersIndex.Rules(), a.config.WarningBuffer)
	result |= ownership.NewAuditor(a.config.WarningBuffer).Audit(ownersIndex.Rules())

	teamResult, err := a.checkFilesWithoutTeamOwnership(ownersIndex)
	if err != nil {
		return result, err
	}
	result |= teamResult

	if !result.Ok() {
		a.printWarn("Errors found in file %s\n", filepath.Join(a.config.RepoDir, a.config.CodeownersPath))
	}
	return result, nil
}

// checkFilesWithoutTeamOwnership verifies that the configured codeowners
// owner owns ONLY the CODEOWNERS file. It inspects the changed files from
// the config, widened to all tracked files when the CODEOWNERS file itself
// changed.
func (a *App) checkFilesWithoutTeamOwnership(ownersIndex *ownership.Ownership) (ownership.CheckResult, error) {
	if a.config.CodeownersOwner == "" {
		a.printDebug("No codeowners-owner provided. Skipping check.\n")
		return ownership.Success, nil
	}

	codeownersFile := filepath.ToSlash(a.config.CodeownersPath)
	filesToCheck := a.config.ChangedFiles
	if slices.Contains(filesToCheck, codeownersFile) {
		tracked, err := a.lister.TrackedFiles()
		if err != nil {
			return ownership.Success, err
		}
		filesToCheck = tracked
	}

	badFiles := f.Filtered(filesToCheck, func(file string) bool {
		return file != codeownersFile && ownersIndex.IsOwnedBy(file, a.config.CodeownersOwner)
	})
	if len(badFiles) == 0 {
		return ownership.Success, nil
	}

	for _, file := range badFiles {
		a.printWarn("%s should not be owned by %s. Please find a different owner.\n", file, a.config.CodeownersOwner)
	}
	return ownership.FileWithoutTeamOwnership, nil
}

// OwnerReportRow is one line of an owner query report.
type OwnerReportRow struct {
	Path   string
	Owners []string
}

// OwnerReport resolves the owners of target, or of its children level
// directories down when level is positive. Rows come back sorted by path.
func (a *App) OwnerReport(target string, level int) ([]OwnerReportRow, error) {
	abs := target
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(a.config.RepoDir, target)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("item %s does not exist - provide a valid path to an existing file or folder: %w", target, err)
	}

	ownersIndex, err := ownership.New(a.config.RepoDir, a.config.CodeownersPath)
	if err != nil {
		return nil, err
	}

	items := []string{abs}
	if level > 0 {
		pattern := strings.TrimSuffix(strings.Repeat("*/", level), "/")
		matches, err := doublestar.Glob(os.DirFS(abs), pattern)
		if err != nil {
			return nil, err
		}
		items = f.Map(matches, func(match string) string { return filepath.Join(abs, match) })
		slices.Sort(items)
	}

	rows := make([]OwnerReportRow, 0, len(items))
	for _, item := range items {
		rel, err := filepath.Rel(a.config.RepoDir, item)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("item %s is outside the repository root %s", item, a.config.RepoDir)
		}
		rel = filepath.ToSlash(rel)
		rows = append(rows, OwnerReportRow{Path: rel, Owners: ownersIndex.GetOwners(rel)})
	}
	return rows, nil
}

// UnownedFiles returns the given repo-relative files that no CODEOWNERS
// rule covers.
func (a *App) UnownedFiles(files []string) ([]string, error) {
	ownersIndex, err := ownership.New(a.config.RepoDir, a.config.CodeownersPath)
	if err != nil {
		return nil, err
	}
	return f.Filtered(files, func(file string) bool {
		return len(ownersIndex.GetOwners(file)) == 0
	}), nil
}
