package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/pget/internal/archive"
	"github.com/ZebulonRouseFrantzich/pget/internal/build"
	"github.com/ZebulonRouseFrantzich/pget/internal/fetch"
	"github.com/ZebulonRouseFrantzich/pget/internal/installroot"
	"github.com/ZebulonRouseFrantzich/pget/internal/launcher"
	"github.com/ZebulonRouseFrantzich/pget/internal/transaction"
)

// Config holds the collaborators of a Manager.
type Config struct {
	// Root is the install root directory.
	Root string
	// Fetcher downloads archives. Required.
	Fetcher fetch.Fetcher
	// Extractor unpacks archives. Nil uses archive.NewExtractor.
	Extractor *archive.Extractor
	// Driver compiles packages. Nil disables Options.Compile.
	Driver *build.Driver
	// Branch names the top-level "<name>-<branch>" directory in archives.
	Branch string
	// FetchTimeout and BuildTimeout bound the network and build steps.
	// Zero means no limit beyond the caller's context.
	FetchTimeout time.Duration
	BuildTimeout time.Duration
	// ScratchDir is where archives are extracted. Empty uses os.TempDir.
	ScratchDir string
	Logger     zerolog.Logger
}

// Manager runs lifecycle operations against one install root.
type Manager struct {
	root         *installroot.Root
	fetcher      fetch.Fetcher
	extractor    *archive.Extractor
	driver       *build.Driver
	branch       string
	fetchTimeout time.Duration
	buildTimeout time.Duration
	scratchDir   string
	logger       zerolog.Logger
}

// NewManager creates a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("Fetcher is required")
	}
	root, err := installroot.New(cfg.Root)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		root:         root,
		fetcher:      cfg.Fetcher,
		extractor:    cfg.Extractor,
		driver:       cfg.Driver,
		branch:       cfg.Branch,
		fetchTimeout: cfg.FetchTimeout,
		buildTimeout: cfg.BuildTimeout,
		scratchDir:   cfg.ScratchDir,
		logger:       cfg.Logger,
	}
	if m.extractor == nil {
		m.extractor = archive.NewExtractor()
	}
	if m.branch == "" {
		m.branch = fetch.DefaultBranch
	}
	return m, nil
}

// Root returns the install root.
func (m *Manager) Root() *installroot.Root {
	return m.root
}

// Install deploys name unless an entry already exists, in which case it
// reports StatusAlreadyInstalled without touching the network or the disk.
func (m *Manager) Install(ctx context.Context, name string, opts Options) (*Result, error) {
	if err := installroot.ValidateName(name); err != nil {
		return nil, err
	}
	logger := m.logger.With().Str("name", name).Str("operation", "install").Logger()

	if res, done, err := m.alreadyInstalled(name); err != nil || done {
		return res, err
	}

	if err := m.root.Ensure(); err != nil {
		return nil, err
	}
	lock, err := transaction.AcquireLock(ctx, m.root.Dir())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	// Another invocation may have finished between the check and the lock.
	if res, done, err := m.alreadyInstalled(name); err != nil || done {
		return res, err
	}

	shape, sidecarRemoved, err := m.deploy(ctx, logger, name, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("shape", shape.String()).Msg("Installed")
	return &Result{
		Name:           name,
		Status:         StatusInstalled,
		Path:           m.root.EntryPath(name),
		Shape:          shape,
		SidecarRemoved: sidecarRemoved,
	}, nil
}

func (m *Manager) alreadyInstalled(name string) (*Result, bool, error) {
	installed, err := m.root.IsInstalled(name)
	if err != nil {
		return nil, false, err
	}
	if !installed {
		return nil, false, m.root.CheckEntry(name)
	}
	return &Result{Name: name, Status: StatusAlreadyInstalled, Path: m.root.EntryPath(name)}, true, nil
}

// Upgrade replaces an existing entry with a fresh deployment. A missing entry
// is ErrNotInstalled and nothing is written, not even the install root.
func (m *Manager) Upgrade(ctx context.Context, name string, opts Options) (*Result, error) {
	if err := installroot.ValidateName(name); err != nil {
		return nil, err
	}
	logger := m.logger.With().Str("name", name).Str("operation", "upgrade").Logger()

	installed, err := m.root.IsInstalled(name)
	if err != nil {
		return nil, err
	}
	if !installed {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	lock, err := transaction.AcquireLock(ctx, m.root.Dir())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	shape, sidecarRemoved, err := m.deploy(ctx, logger, name, opts)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("shape", shape.String()).Msg("Upgraded")
	return &Result{
		Name:           name,
		Status:         StatusUpgraded,
		Path:           m.root.EntryPath(name),
		Shape:          shape,
		SidecarRemoved: sidecarRemoved,
	}, nil
}

// Remove deletes the entry for name and its files directory. A missing entry
// is not an error; the result reports StatusNotInstalled.
func (m *Manager) Remove(ctx context.Context, name string) (*Result, error) {
	if err := installroot.ValidateName(name); err != nil {
		return nil, err
	}

	installed, err := m.root.IsInstalled(name)
	if err != nil {
		return nil, err
	}
	if !installed {
		m.logger.Debug().Str("name", name).Msg("Nothing to remove")
		return &Result{Name: name, Status: StatusNotInstalled, Path: m.root.EntryPath(name)}, nil
	}

	lock, err := transaction.AcquireLock(ctx, m.root.Dir())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	entry := m.root.EntryPath(name)
	if err := os.RemoveAll(entry); err != nil {
		return nil, fmt.Errorf("remove %s: %w", entry, err)
	}

	res := &Result{Name: name, Status: StatusRemoved, Path: entry}
	if m.root.HasSidecar(name) {
		if err := os.RemoveAll(m.root.SidecarPath(name)); err != nil {
			return nil, fmt.Errorf("remove files directory: %w", err)
		}
		res.SidecarRemoved = true
	}
	m.logger.Info().Str("name", name).Bool("sidecar", res.SidecarRemoved).Msg("Removed")
	return res, nil
}

// List returns installed application names in lexicographic order.
func (m *Manager) List() ([]string, error) {
	return m.root.Installed()
}

// deploy fetches, classifies and materializes name into the install root.
// The caller holds the lock.
func (m *Manager) deploy(ctx context.Context, logger zerolog.Logger, name string, opts Options) (Shape, bool, error) {
	if opts.Compile && m.driver == nil {
		return ShapeNone, false, ErrCompileUnsupported
	}

	opts.report(PhaseFetch)
	data, err := m.fetch(ctx, name)
	if err != nil {
		return ShapeNone, false, err
	}

	scratch, err := os.MkdirTemp(m.scratchDir, "pget-")
	if err != nil {
		return ShapeNone, false, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := m.extractor.ExtractZip(data, scratch); err != nil {
		return ShapeNone, false, fmt.Errorf("extract archive: %w", err)
	}

	repoRoot := archive.RepoRoot(scratch, name, m.branch)
	pkg, err := archive.Classify(archive.PackageDir(repoRoot))
	if err != nil {
		return ShapeNone, false, err
	}
	if pkg.Kind == archive.KindInvalid {
		logger.Debug().Str("repo", repoRoot).Msg("Archive has no package directory")
		return ShapeNone, false, fmt.Errorf("%w: %s", ErrNoCandidate, name)
	}
	logger.Debug().Str("kind", pkg.Kind.String()).Msg("Classified package")

	var artifact string
	if opts.Compile {
		opts.report(PhaseCompile)
		artifact, err = m.compile(ctx, repoRoot)
		if err != nil {
			return ShapeNone, false, err
		}
	}

	stage, err := transaction.NewStage(m.root.Dir())
	if err != nil {
		return ShapeNone, false, err
	}
	defer stage.Cleanup()

	switch {
	case opts.Compile:
		return m.promoteSingle(stage, name, ShapeCompiled, func() error {
			return stage.CopyExecutable(name, artifact)
		})
	case pkg.Kind == archive.KindSingleFile:
		return m.promoteSingle(stage, name, ShapeSingleFile, func() error {
			return stage.WriteExecutable(name, []byte(launcher.Script(pkg.Content)))
		})
	default:
		return ShapeMultiFile, false, m.promoteMulti(stage, name, pkg.Dir)
	}
}

func (m *Manager) fetch(ctx context.Context, name string) ([]byte, error) {
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}

	data, err := m.fetcher.Fetch(ctx, name)
	if errors.Is(err, fetch.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidate, name)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return data, nil
}

func (m *Manager) compile(ctx context.Context, repoRoot string) (string, error) {
	if m.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.buildTimeout)
		defer cancel()
	}
	return m.driver.Build(ctx, repoRoot)
}

// promoteSingle stages a lone executable, moves it over the entry and drops
// a files directory left by an earlier multi-file deployment.
func (m *Manager) promoteSingle(stage *transaction.Stage, name string, shape Shape, write func() error) (Shape, bool, error) {
	if err := m.root.CheckEntry(name); err != nil {
		return ShapeNone, false, err
	}
	if err := write(); err != nil {
		return ShapeNone, false, err
	}
	if err := stage.Promote(name, m.root.EntryPath(name)); err != nil {
		return ShapeNone, false, err
	}

	if !m.root.HasSidecar(name) {
		return shape, false, nil
	}
	if err := os.RemoveAll(m.root.SidecarPath(name)); err != nil {
		return ShapeNone, false, fmt.Errorf("remove stale files directory: %w", err)
	}
	return shape, true, nil
}

// promoteMulti stages the package tree and its launcher, then replaces the
// files directory before the entry so the launcher never points at a
// partial tree.
func (m *Manager) promoteMulti(stage *transaction.Stage, name, packageDir string) error {
	if err := m.root.CheckEntry(name); err != nil {
		return err
	}
	sidecar := name + installroot.SidecarSuffix
	if err := stage.CopyTree(sidecar, packageDir); err != nil {
		return fmt.Errorf("stage package files: %w", err)
	}
	if err := stage.WriteExecutable(name, []byte(launcher.Synthesize(name))); err != nil {
		return err
	}

	if err := os.RemoveAll(m.root.SidecarPath(name)); err != nil {
		return fmt.Errorf("remove old files directory: %w", err)
	}
	if err := stage.Promote(sidecar, m.root.SidecarPath(name)); err != nil {
		return err
	}
	return stage.Promote(name, m.root.EntryPath(name))
}
