// Package di wires the application together with manual dependency
// injection: database, repositories, state container, and use cases.
package di

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"

	appconfig "github.com/planday/planday/internal/app/config"
	"github.com/planday/planday/internal/application/store"
	"github.com/planday/planday/internal/application/usecase/dayview"
	"github.com/planday/planday/internal/application/usecase/migrate"
	"github.com/planday/planday/internal/application/usecase/occurrence"
	"github.com/planday/planday/internal/application/usecase/reorder"
	"github.com/planday/planday/internal/application/usecase/taskops"
	"github.com/planday/planday/internal/domain/repository"
	sqliterepo "github.com/planday/planday/internal/infrastructure/persistence/sqlite"
	filerepo "github.com/planday/planday/internal/infrastructure/repository/file"
	"github.com/planday/planday/internal/infrastructure/transaction"
)

// Container holds all wired dependencies.
type Container struct {
	config appconfig.Config

	// Infrastructure
	db          *sql.DB
	taskRepo    repository.TaskRepository
	patternRepo repository.PatternRepository
	txManager   *transaction.Manager
	exporter    *filerepo.PlanExporter

	// Application state
	store *store.Store

	// Use cases
	dayView     *dayview.UseCase
	taskService *taskops.Service
	materialize *occurrence.MaterializeUseCase
	deleteOcc   *occurrence.DeleteOccurrenceUseCase
	chain       *occurrence.ChainUseCase
	ensure      *occurrence.EnsureUseCase
	reorder     *reorder.Manager
	migrate     *migrate.LegacyPatternsUseCase
}

// NewContainer opens the database, runs migrations, and wires every
// use case. The caller owns Close.
func NewContainer(cfg appconfig.Config) (*Container, error) {
	c := &Container{config: cfg}

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	c.initApplication()
	return c, nil
}

func (c *Container) initInfrastructure() error {
	dbPath := c.config.DBPath()
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db

	if err := sqliterepo.NewMigrator(db).Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.taskRepo = sqliterepo.NewTaskRepository(db)
	c.patternRepo = sqliterepo.NewPatternRepository(db)
	c.txManager = transaction.NewManager(db)
	c.exporter = filerepo.NewPlanExporter(afero.NewOsFs(), c.config.PlansDir())
	return nil
}

func (c *Container) initApplication() {
	c.store = store.New()

	now := time.Now
	rnd := io.Reader(rand.Reader)

	c.dayView = &dayview.UseCase{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
	}
	c.materialize = &occurrence.MaterializeUseCase{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
		Now:      now,
		Rand:     rnd,
	}
	c.deleteOcc = &occurrence.DeleteOccurrenceUseCase{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
		Now:      now,
	}
	c.chain = &occurrence.ChainUseCase{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
		Now:      now,
		Rand:     rnd,
	}
	c.ensure = &occurrence.EnsureUseCase{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
		Now:      now,
		Rand:     rnd,
	}
	c.reorder = reorder.NewManager(c.store, c.taskRepo)
	c.taskService = &taskops.Service{
		Tasks:    c.taskRepo,
		Patterns: c.patternRepo,
		Store:    c.store,
		Chain:    c.chain,
		Now:      now,
		Rand:     rnd,
	}
	c.migrate = &migrate.LegacyPatternsUseCase{
		Tasks:       c.taskRepo,
		Patterns:    c.patternRepo,
		Store:       c.store,
		HorizonDays: c.config.HorizonDays(),
		Now:         now,
		Rand:        rnd,
	}
}

// Config returns the loaded application configuration.
func (c *Container) Config() appconfig.Config { return c.config }

// Store returns the shared state container.
func (c *Container) Store() *store.Store { return c.store }

// TaskRepository returns the task repository.
func (c *Container) TaskRepository() repository.TaskRepository { return c.taskRepo }

// PatternRepository returns the pattern repository.
func (c *Container) PatternRepository() repository.PatternRepository { return c.patternRepo }

// TransactionManager returns the SQLite transaction manager.
func (c *Container) TransactionManager() *transaction.Manager { return c.txManager }

// PlanExporter returns the day-plan file exporter.
func (c *Container) PlanExporter() *filerepo.PlanExporter { return c.exporter }

// DayView returns the day resolution use case.
func (c *Container) DayView() *dayview.UseCase { return c.dayView }

// TaskService returns the task CRUD service.
func (c *Container) TaskService() *taskops.Service { return c.taskService }

// Materialize returns the occurrence materialization use case.
func (c *Container) Materialize() *occurrence.MaterializeUseCase { return c.materialize }

// DeleteOccurrence returns the occurrence deletion use case.
func (c *Container) DeleteOccurrence() *occurrence.DeleteOccurrenceUseCase { return c.deleteOcc }

// Chain returns the after-completion chaining use case.
func (c *Container) Chain() *occurrence.ChainUseCase { return c.chain }

// Ensure returns the instance pre-generation use case.
func (c *Container) Ensure() *occurrence.EnsureUseCase { return c.ensure }

// Reorder returns the priority reorder manager.
func (c *Container) Reorder() *reorder.Manager { return c.reorder }

// Migrate returns the legacy-to-pattern migration use case.
func (c *Container) Migrate() *migrate.LegacyPatternsUseCase { return c.migrate }

// Close closes all resources held by the container.
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
