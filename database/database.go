package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpupo63/blog-backend/config"
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type Database struct {
	db           *gorm.DB
	userRepo     *UserRepo
	blogPostRepo *BlogPostRepo
	commentRepo  *CommentRepo
}

type options struct {
	now func() time.Time
}

// Option customises a Database.
type Option func(*options)

// WithClock overrides the clock used to stamp publish dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB, opts ...Option) Database {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return Database{
		db:           db,
		userRepo:     NewUserRepo(db),
		blogPostRepo: NewBlogPostRepo(db, o.now),
		commentRepo:  NewCommentRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) BlogPostRepo() *BlogPostRepo {
	return d.blogPostRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

// Migrate creates or updates the users, blog_posts and comments tables.
func (d Database) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Ping verifies that the primary database is reachable.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool. Safe to call once at shutdown.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Open connects to the database selected by DB_TYPE and registers any read
// replicas listed in DB_REPLICA_URLS.
func Open(app config.App) (*gorm.DB, error) {
	if app.DBURL == "" {
		return nil, errors.New("database URL cannot be empty")
	}

	db, err := gorm.Open(dialector(app.DBType, app.DBURL), &gorm.Config{
		Logger:         NewGormLogger(log.Logger, 2*time.Second),
		TranslateError: true,
		PrepareStmt:    false,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", app.DBType, err)
	}

	if app.DBType == config.DBTypeSQLite {
		// sqlite allows a single writer; one connection keeps
		// transactions from tripping over "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if len(app.DBReplicaURLs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(app.DBReplicaURLs))
		for _, url := range app.DBReplicaURLs {
			replicas = append(replicas, dialector(app.DBType, url))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		log.Info().Int("replicas", len(replicas)).Msg("Read replicas registered")
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("testing database connection: %w", err)
	}

	return db, nil
}

func dialector(dbType, url string) gorm.Dialector {
	switch dbType {
	case config.DBTypePostgres:
		return postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true,
		})
	case config.DBTypeMySQL:
		return mysql.Open(url)
	default:
		return sqlite.Open(sqliteDSN(url))
	}
}

// sqliteDSN turns on foreign key enforcement, which sqlite leaves off per connection.
func sqliteDSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite:///")
	url = strings.TrimPrefix(url, "sqlite://")
	if strings.Contains(url, "_foreign_keys=") || strings.Contains(url, "_fk=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&_foreign_keys=on"
	}
	return url + "?_foreign_keys=on"
}

// withTx runs fn inside a transaction that commits on success and rolls back
// on error. Constraint and not-found failures keep their classification;
// anything else becomes a transaction failure for operation.
func withTx(ctx context.Context, db *gorm.DB, operation string, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}

	translated := errs.TranslateDB(err)
	switch {
	case errs.IsUniqueConstraintViolationError(translated),
		errs.IsForeignKeyConstraintError(translated),
		errs.IsNotFound(translated):
		return translated
	}

	var apiErr *errs.ApiErr
	if errors.As(translated, &apiErr) {
		return translated
	}

	log.Error().Err(err).Str("operation", operation).Msg("Transaction rolled back")
	return errs.NewTransactionFailedError(operation, err)
}
