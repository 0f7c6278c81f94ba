package migration_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"testing/fstest"

	"github.com/frahmantamala/bookkeeping/internal/migration"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Migration Suite")
}

var _ = Describe("Migrator", func() {
	var (
		db       *gorm.DB
		migrator *migration.Migrator
		ctx      context.Context
	)

	fsys := fstest.MapFS{
		"migrations/00001_create_companies.sql": {Data: []byte(`-- +goose Up
CREATE TABLE companies (id INTEGER PRIMARY KEY, name TEXT NOT NULL);

-- +goose Down
DROP TABLE companies;
`)},
		"migrations/00002_create_settings.sql": {Data: []byte(`-- +goose Up
CREATE TABLE settings ("key" TEXT PRIMARY KEY, value TEXT NOT NULL);

-- +goose Down
DROP TABLE settings;
`)},
	}

	tableExists := func(name string) bool {
		return db.Migrator().HasTable(name)
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		migrator = migration.NewMigrator(sqlDB, fsys, "migrations", slogger).WithDialect("sqlite3")
	})

	It("applies every pending migration once", func() {
		result, err := migrator.Up(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FromVersion).To(BeZero())
		Expect(result.ToVersion).To(Equal(int64(2)))
		Expect(result.Changed()).To(BeTrue())
		Expect(tableExists("companies")).To(BeTrue())
		Expect(tableExists("settings")).To(BeTrue())
		Expect(tableExists(migration.TableName)).To(BeTrue())

		again, err := migrator.Up(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Changed()).To(BeFalse())
	})

	It("rolls back only the latest migration", func() {
		_, err := migrator.Up(ctx)
		Expect(err).NotTo(HaveOccurred())

		result, err := migrator.Rollback(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FromVersion).To(Equal(int64(2)))
		Expect(result.ToVersion).To(Equal(int64(1)))
		Expect(tableExists("settings")).To(BeFalse())
		Expect(tableExists("companies")).To(BeTrue())
	})
})
