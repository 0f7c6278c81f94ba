package category_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/bookkeeping/internal/category"
	categoryPostgres "github.com/frahmantamala/bookkeeping/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/company"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		slogger *slog.Logger
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&companyDatamodel.Company{}, &categoryDatamodel.Category{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&companyDatamodel.Company{ID: 2, Name: "PT Maju Jaya"}).Error).To(Succeed())
		companyID := int64(2)
		Expect(db.Create(&categoryDatamodel.Category{Name: "Konsumsi", Type: "EXPENSE"}).Error).To(Succeed())
		Expect(db.Create(&categoryDatamodel.Category{Name: "Penjualan", Type: "INCOME", CompanyID: &companyID}).Error).To(Succeed())

		service := category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		handler := category.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Get("/categories/{id}", handler.GetCategory)
		router.Put("/categories/{id}", handler.UpdateCategory)
		router.Delete("/categories/{id}", handler.DeleteCategory)
	})

	It("should list categories with the company name joined in", func() {
		w := do(http.MethodGet, "/categories", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var categories []category.Category
		Expect(json.NewDecoder(w.Body).Decode(&categories)).To(Succeed())
		Expect(categories).To(HaveLen(2))
		Expect(categories[0].Name).To(Equal("Konsumsi"))
		Expect(categories[0].CompanyName).To(BeNil())
		Expect(categories[1].CompanyName).NotTo(BeNil())
		Expect(*categories[1].CompanyName).To(Equal("PT Maju Jaya"))
	})

	It("should filter by type", func() {
		w := do(http.MethodGet, "/categories?type=INCOME", "")
		var categories []category.Category
		Expect(json.NewDecoder(w.Body).Decode(&categories)).To(Succeed())
		Expect(categories).To(HaveLen(1))
		Expect(categories[0].Type).To(Equal(category.TypeIncome))
	})

	It("should create, update and delete a category", func() {
		w := do(http.MethodPost, "/categories", `{"name":"Transportasi","company_id":2}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created category.Category
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Type).To(Equal(category.TypeExpense))
		Expect(*created.CompanyName).To(Equal("PT Maju Jaya"))

		path := "/categories/" + jsonNumber(created.ID)
		w = do(http.MethodPut, path, `{"name":"Perjalanan Dinas","type":"EXPENSE"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated category.Category
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Name).To(Equal("Perjalanan Dinas"))
		Expect(updated.CompanyID).To(BeNil())

		Expect(do(http.MethodDelete, path, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, path, "").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a non-numeric id", func() {
		Expect(do(http.MethodGet, "/categories/abc", "").Code).To(Equal(http.StatusBadRequest))
	})
})

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
