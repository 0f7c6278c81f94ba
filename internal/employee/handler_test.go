package employee_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/frahmantamala/bookkeeping/internal/auth"
	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	employeePostgres "github.com/frahmantamala/bookkeeping/internal/employee/postgres"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestEmployee(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Suite")
}

const budiBody = `{
	"name": "Budi Santoso",
	"position": "Staff Keuangan",
	"phone": "08123456789",
	"email": "budi@example.com",
	"username": "budi",
	"password": "rahasia123"
}`

var _ = Describe("Employee Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	loginOf := func(username string) *userDatamodel.User {
		var u userDatamodel.User
		Expect(db.Where("username = ?", username).First(&u).Error).To(Succeed())
		return &u
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{}, &employeeDatamodel.Employee{})).To(Succeed())

		service := employee.NewService(employeePostgres.NewEmployeeRepository(db), bcrypt.MinCost, slogger)
		handler := employee.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Get("/employees", handler.GetEmployees)
		router.Post("/employees", handler.CreateEmployee)
		router.Get("/employees/{id}", handler.GetEmployee)
		router.Put("/employees/{id}", handler.UpdateEmployee)
		router.Delete("/employees/{id}", handler.DeleteEmployee)
	})

	It("creates the employee together with an employee login", func() {
		w := do(http.MethodPost, "/employees", budiBody)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created employee.Employee
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Name).To(Equal("Budi Santoso"))
		Expect(created.Username).To(Equal("budi"))
		Expect(created.Role).To(Equal(auth.RoleEmployee))

		login := loginOf("budi")
		Expect(login.ID).To(Equal(created.UserID))
		Expect(auth.VerifyPassword(login.PasswordHash, "rahasia123")).To(Succeed())
	})

	It("rejects a taken username with 409 and leaves no orphan employee", func() {
		Expect(do(http.MethodPost, "/employees", budiBody).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/employees", budiBody).Code).To(Equal(http.StatusConflict))

		var count int64
		Expect(db.Model(&employeeDatamodel.Employee{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
	})

	It("rejects an invalid email with 400", func() {
		w := do(http.MethodPost, "/employees", `{"name":"Sari","email":"not-an-email","username":"sari","password":"rahasia123"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("updates the profile and the login", func() {
		Expect(do(http.MethodPost, "/employees", budiBody).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodPut, "/employees/1", `{
			"name": "Budi S.", "position": "Kepala Keuangan",
			"username": "budi.s", "password": "baru12345", "role": "admin"
		}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var updated employee.Employee
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Position).To(Equal("Kepala Keuangan"))
		Expect(updated.Username).To(Equal("budi.s"))
		Expect(updated.Role).To(Equal(auth.RoleAdmin))

		Expect(auth.VerifyPassword(loginOf("budi.s").PasswordHash, "baru12345")).To(Succeed())
	})

	It("deletes the employee and its login", func() {
		Expect(do(http.MethodPost, "/employees", budiBody).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodDelete, "/employees/1", "").Code).To(Equal(http.StatusOK))

		var users int64
		Expect(db.Model(&userDatamodel.User{}).Count(&users).Error).To(Succeed())
		Expect(users).To(BeZero())
		Expect(do(http.MethodGet, "/employees/1", "").Code).To(Equal(http.StatusNotFound))
	})
})
