package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/company"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	employeePostgres "github.com/frahmantamala/bookkeeping/internal/employee/postgres"
	"github.com/frahmantamala/bookkeeping/internal/user"
	userPostgres "github.com/frahmantamala/bookkeeping/internal/user/postgres"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		initLogger(cfg)

		sqlxDB, gdb, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		if err := seedDatabase(cmd.Context(), gdb, clearData, cfg.Security.BCryptCost, logger.LoggerWrapper(), os.Stdout); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

// clear order respects foreign keys
var seedTables = []string{
	"reimbursement_items",
	"reimbursements",
	"transaction_items",
	"transactions",
	"employees",
	"users",
	"categories",
	"companies",
	"settings",
}

var seedCompanies = []string{"PT Maju Jaya", "CV Sumber Rejeki"}

var seedCategories = []struct {
	Name string
	Type string
}{
	{"Penjualan", "INCOME"},
	{"Pendapatan Lain", "INCOME"},
	{"ATK", "EXPENSE"},
	{"Transport", "EXPENSE"},
	{"Konsumsi", "EXPENSE"},
	{"Operasional", "EXPENSE"},
}

func seedDatabase(ctx context.Context, gdb *gorm.DB, clear bool, bcryptCost int, lg *slog.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = internal.ContextWithActor(ctx, internal.SystemActor)
	db := gdb.WithContext(ctx)

	if clear {
		for _, table := range seedTables {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		fmt.Fprintln(out, "Cleared existing data")
	}

	for _, name := range seedCompanies {
		c := companyDatamodel.Company{Name: name}
		res := db.Where("name = ?", name).FirstOrCreate(&c)
		if res.Error != nil {
			return fmt.Errorf("seed company %s: %w", name, res.Error)
		}
		if res.RowsAffected > 0 {
			fmt.Fprintf(out, "Seeded company: %s\n", name)
		}
	}

	for _, c := range seedCategories {
		row := categoryDatamodel.Category{Name: c.Name, Type: c.Type}
		res := db.Where("name = ? AND company_id IS NULL", c.Name).FirstOrCreate(&row)
		if res.Error != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, res.Error)
		}
		if res.RowsAffected > 0 {
			fmt.Fprintf(out, "Seeded shared category: %s (%s)\n", c.Name, c.Type)
		}
	}

	users := user.NewService(userPostgres.NewUserRepository(gdb), bcryptCost, lg)
	_, err := users.Create(ctx, &user.CreateUserDTO{Username: "admin", Password: seedPassword, Role: auth.RoleAdmin})
	if err := reportSeed(out, "admin user", "admin", err); err != nil {
		return err
	}

	employees := employee.NewService(employeePostgres.NewEmployeeRepository(gdb), bcryptCost, lg)
	_, err = employees.Create(ctx, &employee.CreateEmployeeDTO{
		Name:     "Budi Santoso",
		Position: "Staff Lapangan",
		Phone:    "081234567890",
		Email:    "budi@example.com",
		Username: "budi",
		Password: seedPassword,
		Role:     auth.RoleEmployee,
	})
	return reportSeed(out, "employee", "budi", err)
}

func reportSeed(out io.Writer, what, username string, err error) error {
	if err == nil {
		fmt.Fprintf(out, "Seeded %s: %s (password %q)\n", what, username, seedPassword)
		return nil
	}
	var appErr *internal.AppError
	if errors.As(err, &appErr) && appErr.Code == internal.ErrCodeUsernameTaken {
		fmt.Fprintf(out, "%s %s already exists\n", what, username)
		return nil
	}
	return fmt.Errorf("seed %s %s: %w", what, username, err)
}
