package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"taskflow/internal/config"
	"taskflow/internal/repository"
	"taskflow/internal/service"
	"taskflow/internal/store"
)

// backend is the record store selected by configuration.
type backend struct {
	cfg           config.Config
	now           func() time.Time
	taskStore     store.TaskStore
	categoryStore store.CategoryStore
	db            *gorm.DB
}

func openBackend(cfg config.Config) (*backend, error) {
	now, err := clock(cfg)
	if err != nil {
		return nil, err
	}
	b := &backend{cfg: cfg, now: now}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		var seed store.Seed
		if cfg.SeedFile != "" {
			seed, err = store.LoadSeed(cfg.SeedFile, now())
			if err != nil {
				return nil, err
			}
		}
		b.taskStore = store.NewMemoryTaskStore(seed.Tasks, store.WithLatency(cfg.MockLatency))
		b.categoryStore = store.NewMemoryCategoryStore(seed.Categories, store.WithLatency(cfg.MockLatency))
	case config.BackendSQLite:
		db, err := repository.NewDB(cfg.DatabaseURL, repository.Quiet())
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		b.db = db
		b.taskStore = store.NewSQLTaskStore(repository.NewTaskRepository(db))
		b.categoryStore = store.NewSQLCategoryStore(repository.NewCategoryRepository(db))
	case config.BackendRemote:
		client := store.NewClient(cfg.RemoteURL, cfg.RemoteToken)
		b.taskStore = store.NewRemoteTaskStore(client)
		b.categoryStore = store.NewRemoteCategoryStore(client)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return b, nil
}

func (b *backend) Close() error {
	if b.db == nil {
		return nil
	}
	return repository.Close(b.db)
}

// workspace is a loaded pair of coordinators for one command run.
type workspace struct {
	*backend
	tasks      *service.TaskService
	categories *service.CategoryService
}

// openWorkspace loads configuration, opens the store and loads tasks and
// categories. Notifications go to the command's output.
func openWorkspace(cmd *cobra.Command, assumeYes bool) (*workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	notifier := terminalNotifier{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	confirmer := promptConfirmer{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), assumeYes: assumeYes}

	tasks := service.NewTaskService(b.taskStore, notifier, confirmer, service.WithClock(b.now))
	w := &workspace{
		backend:    b,
		tasks:      tasks,
		categories: service.NewCategoryService(b.categoryStore, tasks, notifier, confirmer),
	}

	ctx := cmd.Context()
	if err := tasks.Load(ctx); err != nil {
		b.Close()
		return nil, err
	}
	if err := w.categories.Load(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return w, nil
}

// resolveCategory accepts a category id or name.
func (w *workspace) resolveCategory(ref string) (string, error) {
	if c, err := w.categories.Category(ref); err == nil {
		return c.ID, nil
	}
	for _, c := range w.categories.Categories() {
		if strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", service.ErrValidation, ref)
}

// resolveTask accepts a full task id or a unique prefix of one.
func (w *workspace) resolveTask(ref string) (string, error) {
	if _, err := w.tasks.Task(ref); err == nil {
		return ref, nil
	}
	var match string
	for _, t := range w.tasks.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("%w: task id %q is ambiguous", service.ErrValidation, ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: task %s", service.ErrNotFound, ref)
	}
	return match, nil
}
