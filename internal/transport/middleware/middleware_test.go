package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/frahmantamala/bookkeeping/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

const testSpec = `
openapi: 3.0.3
info:
  title: test
  version: 1.0.0
paths:
  /companies:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                  minLength: 1
      responses:
        '201':
          description: created
`

var _ = Describe("Middleware", func() {
	var (
		slogger *slog.Logger
		reached bool
		next    http.Handler
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		reached = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusNoContent)
		})
	})

	Describe("RequirePermissions", func() {
		serve := func(u *auth.User) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
			if u != nil {
				req = req.WithContext(auth.ContextWithUser(req.Context(), u))
			}
			w := httptest.NewRecorder()
			RequirePermissions(slogger, auth.PermManageTransactions)(next).ServeHTTP(w, req)
			return w
		}

		It("returns 401 without an authenticated user", func() {
			Expect(serve(nil).Code).To(Equal(http.StatusUnauthorized))
			Expect(reached).To(BeFalse())
		})

		It("returns 403 with the error envelope when the permission is missing", func() {
			w := serve(&auth.User{ID: 7, Username: "budi", Role: auth.RoleEmployee, Permissions: auth.PermissionsForRole(auth.RoleEmployee)})
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(reached).To(BeFalse())

			var body map[string]map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body["error"]["code"]).To(Equal("INSUFFICIENT_PERMISSIONS"))
		})

		It("passes users holding the permission", func() {
			w := serve(&auth.User{ID: 1, Username: "admin", Role: auth.RoleAdmin, Permissions: auth.PermissionsForRole(auth.RoleAdmin)})
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(reached).To(BeTrue())
		})
	})

	Describe("RecoveryMiddleware", func() {
		It("renders a panic as a 500 AppError", func() {
			panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			})
			w := httptest.NewRecorder()
			RecoveryMiddleware(slogger)(panicking).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(ContainSubstring("INTERNAL_ERROR"))
			Expect(w.Body.String()).NotTo(ContainSubstring("boom"))
		})
	})

	Describe("sensitive data filtering", func() {
		It("masks credentials at any depth", func() {
			out := filterSensitiveBody([]byte(`{"username":"budi","password":"rahasia","nested":{"refresh_token":"abc"},"items":[{"name":"Taksi"}]}`))
			Expect(out).To(ContainSubstring(`"username":"budi"`))
			Expect(out).To(ContainSubstring(`"password":"[FILTERED]"`))
			Expect(out).To(ContainSubstring(`"refresh_token":"[FILTERED]"`))
			Expect(out).To(ContainSubstring(`"name":"Taksi"`))
			Expect(out).NotTo(ContainSubstring("rahasia"))
		})

		It("masks the authorization header", func() {
			h := http.Header{}
			h.Set("Authorization", "Bearer abc")
			h.Set("Content-Type", "application/json")
			filtered := filterSensitiveHeaders(h)
			Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
			Expect(filtered["Content-Type"]).To(Equal("application/json"))
		})
	})

	Describe("RequestValidator", func() {
		var validator *RequestValidator

		BeforeEach(func() {
			var err error
			validator, err = NewRequestValidator([]byte(testSpec), "/api/v1", slogger)
			Expect(err).NotTo(HaveOccurred())
		})

		post := func(path, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			validator.Middleware(next).ServeHTTP(w, req)
			return w
		}

		It("lets a conforming body through", func() {
			Expect(post("/api/v1/companies", `{"name":"PT Maju Jaya"}`).Code).To(Equal(http.StatusNoContent))
			Expect(reached).To(BeTrue())
		})

		It("rejects a body that breaks the schema", func() {
			w := post("/api/v1/companies", `{"name":""}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("VALIDATION_FAILED"))
			Expect(reached).To(BeFalse())
		})

		It("passes undocumented routes through", func() {
			Expect(post("/api/v1/unknown", `{}`).Code).To(Equal(http.StatusNoContent))
			Expect(post("/elsewhere/companies", `{"name":""}`).Code).To(Equal(http.StatusNoContent))
		})
	})
})
