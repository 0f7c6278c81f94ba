package setting_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	settingDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/setting"
	"github.com/frahmantamala/bookkeeping/internal/setting"
	settingPostgres "github.com/frahmantamala/bookkeeping/internal/setting/postgres"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSetting(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Setting Suite")
}

var _ = Describe("Setting Handler Integration", func() {
	var router chi.Router

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&settingDatamodel.Setting{})).To(Succeed())

		handler := setting.NewHandler(
			transport.NewBaseHandler(slogger),
			setting.NewService(settingPostgres.NewSettingRepository(db), slogger),
		)
		router = chi.NewRouter()
		router.Get("/settings", handler.GetSettings)
		router.Get("/settings/{key}", handler.GetSetting)
		router.Put("/settings/{key}", handler.PutSetting)
	})

	It("stores any JSON value and overwrites it on the next put", func() {
		Expect(do(http.MethodPut, "/settings/company_profile", `{"name":"PT Maju Jaya","npwp":"01.234"}`).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, "/settings/fiscal_year_start", `"01-01"`).Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPut, "/settings/fiscal_year_start", `"04-01"`).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/settings", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var all map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&all)).To(Succeed())
		Expect(all).To(HaveKeyWithValue("fiscal_year_start", "04-01"))
		Expect(all["company_profile"]).To(HaveKeyWithValue("name", "PT Maju Jaya"))
	})

	It("returns a single setting", func() {
		Expect(do(http.MethodPut, "/settings/max_claim", `5000000`).Code).To(Equal(http.StatusOK))

		w := do(http.MethodGet, "/settings/max_claim", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var s setting.Setting
		Expect(json.NewDecoder(w.Body).Decode(&s)).To(Succeed())
		Expect(string(s.Value)).To(Equal("5000000"))
	})

	It("rejects malformed JSON and bad keys", func() {
		Expect(do(http.MethodPut, "/settings/x", `{oops`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPut, "/settings/bad%20key", `1`).Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown key", func() {
		Expect(do(http.MethodGet, "/settings/missing", "").Code).To(Equal(http.StatusNotFound))
	})
})
