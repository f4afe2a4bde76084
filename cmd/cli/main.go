package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/boyter/gocodewalker"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/luminartech/dev-tools/internal/app"
	"github.com/luminartech/dev-tools/internal/git"
	"github.com/luminartech/dev-tools/internal/hooks"
	f "github.com/luminartech/dev-tools/pkg/functional"
)

func stripRoot(root string, path string) string {
	if root == "." {
		return path
	}
	return strings.TrimPrefix(path, root+"/")
}

// resolveRepo falls back to the enclosing repository root when no --root was
// given, so the tool works from any subdirectory.
func resolveRepo(cCtx *cli.Context, repo string) string {
	if cCtx.IsSet("root") {
		return repo
	}
	if root, err := git.RepoRoot(repo); err == nil {
		return root
	}
	return repo
}

func main() {
	var repo string
	var target string
	var codeownersOwner string

	cliApp := &cli.App{
		Name:        "dev-tools",
		Usage:       "CODEOWNERS ownership checks and queries",
		Description: "",
		Commands: []*cli.Command{
			{
				Name:    "check",
				Aliases: []string{"c"},
				Usage:   "Audit the CODEOWNERS file of the repository",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "root",
						Aliases:     []string{"r", "repo"},
						Value:       "./",
						Usage:       "Path to local Git repo",
						Destination: &repo,
					},
					&cli.StringFlag{
						Name:        "codeowners-owner",
						Aliases:     []string{"o"},
						Value:       "",
						Usage:       "Team or person that should only own the CODEOWNERS file",
						Destination: &codeownersOwner,
					},
					&cli.StringSliceFlag{
						Name:    "files",
						Aliases: []string{"f"},
						Usage:   "Changed files to check for team ownership",
					},
					&cli.StringFlag{
						Name:    "diff-base",
						Aliases: []string{"b"},
						Usage:   "Base revision to diff against for the changed-file set",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Value:   false,
						Usage:   "Print debug output",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return checkCodeowners(resolveRepo(cCtx, repo), codeownersOwner,
						cCtx.StringSlice("files"), cCtx.String("diff-base"), cCtx.Bool("verbose"))
				},
			},
			{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "Print the owners of a file or folder",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "root",
						Aliases:     []string{"r", "repo"},
						Value:       "./",
						Usage:       "Path to local Git repo",
						Destination: &repo,
					},
					&cli.StringFlag{
						Name:        "target",
						Aliases:     []string{"t"},
						Value:       "",
						Usage:       "Path from the root of the repo to the target item",
						Destination: &target,
					},
					&cli.IntFlag{
						Name:    "level",
						Aliases: []string{"l"},
						Value:   0,
						Usage:   "Level/depth to descend into the folder",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return printOwners(resolveRepo(cCtx, repo), target, cCtx.Int("level"))
				},
			},
			{
				Name:    "unowned",
				Aliases: []string{"u"},
				Usage:   "Check unowned files in the repository",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "root",
						Aliases:     []string{"r", "repo"},
						Value:       "./",
						Usage:       "Path to local Git repo",
						Destination: &repo,
					},
					&cli.StringFlag{
						Name:        "target",
						Aliases:     []string{"t"},
						Value:       "",
						Usage:       "Path from the root of the repo to the target directory",
						Destination: &target,
					},
					&cli.IntFlag{
						Name:    "depth",
						Aliases: []string{"d"},
						Value:   0,
						Usage:   "Directory depth to check (from target)",
					},
					&cli.BoolFlag{
						Name:    "dirs_only",
						Aliases: []string{"do"},
						Value:   false,
						Usage:   "Only check directories",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return unownedFiles(resolveRepo(cCtx, repo), target, cCtx.Int("depth"), cCtx.Bool("dirs_only"))
				},
			},
			{
				Name:    "hooks",
				Aliases: []string{"h"},
				Usage:   "Audit the exclude paths of the pre-commit hooks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "root",
						Aliases:     []string{"r", "repo"},
						Value:       "./",
						Usage:       "Path to local Git repo",
						Destination: &repo,
					},
				},
				Action: func(cCtx *cli.Context) error {
					return checkHookExcludes(resolveRepo(cCtx, repo))
				},
			},
		},
	}

	err := cliApp.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func checkRepoDir(repo string) error {
	if repoStat, err := os.Lstat(repo); err != nil || !repoStat.IsDir() {
		return fmt.Errorf("Root is not a directory: %s", repo)
	}
	if gitStat, err := os.Stat(filepath.Join(repo, ".git")); err != nil || !gitStat.IsDir() {
		return fmt.Errorf("Root is not a Git repository: %s", repo)
	}
	return nil
}

func checkCodeowners(repo string, codeownersOwner string, changedFiles []string, diffBase string, verbose bool) error {
	if err := checkRepoDir(repo); err != nil {
		return err
	}

	checkApp, err := app.New(app.Config{
		RepoDir:         repo,
		CodeownersOwner: codeownersOwner,
		ChangedFiles:    changedFiles,
		DiffBase:        diffBase,
		Verbose:         verbose,
		InfoBuffer:      os.Stdout,
		WarningBuffer:   os.Stderr,
	})
	if err != nil {
		return err
	}
	result, err := checkApp.RunChecks()
	if err != nil {
		return err
	}
	if !result.Ok() {
		// the exit code carries the combined violation categories
		return cli.Exit("", int(result))
	}
	return nil
}

func printOwners(repo string, target string, level int) error {
	if err := checkRepoDir(repo); err != nil {
		return err
	}
	if target == "" {
		return fmt.Errorf("Target item is required")
	}

	queryApp, err := app.New(app.Config{RepoDir: repo, WarningBuffer: os.Stderr})
	if err != nil {
		return err
	}
	rows, err := queryApp.OwnerReport(target, level)
	if err != nil {
		return err
	}

	var tableBuffer bytes.Buffer
	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Owners"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, row := range rows {
		table.Append([]string{row.Path, strings.Join(row.Owners, ", ")})
	}
	table.Render()
	fmt.Print(tableBuffer.String())
	return nil
}

func depthCheck(path string, target string, depth int) bool {
	extra := 0
	if target != "" {
		extra = strings.Count(target, "/") + 1
	}
	return strings.Count(path, "/") > (depth + extra)
}

func unownedFiles(repo string, target string, depth int, dirsOnly bool) error {
	if err := checkRepoDir(repo); err != nil {
		return err
	}

	fileListQueue := make(chan *gocodewalker.File, 100)

	walker := gocodewalker.NewFileWalker(repo, fileListQueue)
	walker.IncludeHidden = true
	walker.ExcludeDirectory = []string{".git"}

	errChan := make(chan error)

	go func() {
		err := walker.Start()
		errChan <- err
		close(errChan)
	}()

	files := make([]string, 0)
	for file := range fileListQueue {
		name := stripRoot(repo, file.Location)
		if depth != 0 && depthCheck(name, target, depth) {
			continue
		}
		if target != "" && !strings.HasPrefix(name, target) {
			continue
		}
		files = append(files, name)
	}

	if err := <-errChan; err != nil {
		return fmt.Errorf("Error walking repo: %s", err)
	}

	queryApp, err := app.New(app.Config{RepoDir: repo, WarningBuffer: os.Stderr})
	if err != nil {
		return err
	}
	unowned, err := queryApp.UnownedFiles(files)
	if err != nil {
		return err
	}

	if dirsOnly {
		unowned = f.Filtered(f.RemoveDuplicates(f.Map(unowned, func(path string) string {
			return filepath.Dir(path)
		})), func(path string) bool {
			return path != "."
		})
	}
	slices.Sort(unowned)
	fmt.Println(strings.Join(unowned, "\n"))
	return nil
}

func checkHookExcludes(repo string) error {
	if err := checkRepoDir(repo); err != nil {
		return err
	}
	hooksList, err := hooks.LoadHooks(filepath.Join(repo, hooks.ConfigFileName))
	if err != nil {
		return err
	}
	if hooks.CheckExcludes(repo, hooksList, os.Stdout) {
		return cli.Exit("", 1)
	}
	return nil
}
