package reimbursement_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/datamodel"
	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	reimbursementPostgres "github.com/frahmantamala/bookkeeping/internal/reimbursement/postgres"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestReimbursement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reimbursement Suite")
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	result := make([]string, len(p.events))
	for i, e := range p.events {
		result[i] = e.EventType()
	}
	return result
}

func strPtr(s string) *string { return &s }

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&reimbursementDatamodel.Reimbursement{},
		&reimbursementDatamodel.ReimbursementItem{},
		&transactionDatamodel.Transaction{},
		&transactionDatamodel.TransactionItem{},
	)).To(Succeed())
	return db
}

func budiRequest(createdAt time.Time) *reimbursement.ReimbursementDTO {
	return &reimbursement.ReimbursementDTO{
		ID:            "R1",
		Date:          datamodel.NewDate(2024, time.May, 2),
		RequestorName: "Budi",
		Category:      "Transport",
		CompanyID:     3,
		ActivityName:  "Client visit",
		Description:   "Transport ke client",
		Items: []transaction.ItemDTO{
			{
				ID:    "I1",
				Name:  "Taxi",
				Qty:   decimal.NewFromInt(1),
				Price: decimal.NewFromInt(150000),
				Total: decimal.NewFromInt(150000),
			},
		},
		GrandTotal: decimal.NewFromInt(150000),
		Timestamp:  createdAt.UnixMilli(),
	}
}

func expectAppError(err error, status int) *internal.AppError {
	ExpectWithOffset(1, err).To(HaveOccurred())
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected AppError, got %T: %v", err, err)
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	return appErr
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		publisher *recordingPublisher
		service   *reimbursement.Service
		createdAt time.Time
	)

	newService := func(policy reimbursement.TransitionPolicy) *reimbursement.Service {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		return reimbursement.NewService(
			reimbursementPostgres.NewReimbursementRepository(db),
			reimbursementPostgres.NewUnitOfWork(db),
			posting.NewEngine(slogger),
			policy,
			publisher,
			slogger,
		)
	}

	countLedger := func(id string) int64 {
		var n int64
		Expect(db.Model(&transactionDatamodel.Transaction{}).Where("id = ?", id).Count(&n).Error).To(Succeed())
		return n
	}

	countAllLedger := func() int64 {
		var n int64
		Expect(db.Model(&transactionDatamodel.Transaction{}).Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		publisher = &recordingPublisher{}
		createdAt = time.Date(2024, time.May, 2, 9, 15, 0, 0, time.UTC)
		service = newService(reimbursement.PermissiveTransitions)

		created, err := service.Create(ctx, budiRequest(createdAt))
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Status).To(Equal(reimbursement.StatusPending))
	})

	Describe("Create", func() {
		It("starts every request at PENDING with ordered items", func() {
			got, err := service.GetByID(ctx, "R1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusPending))
			Expect(got.CreatedAt).To(BeTemporally("==", createdAt))
			Expect(got.Items).To(HaveLen(1))
			Expect(got.ItemsTotal().Equal(got.GrandTotal)).To(BeTrue())
		})

		It("rejects a duplicate id", func() {
			_, err := service.Create(ctx, budiRequest(createdAt))
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeDuplicateID))
		})

		It("generates an id when none is given", func() {
			req := budiRequest(createdAt)
			req.ID = ""
			req.Items[0].ID = ""
			created, err := service.Create(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.Items[0].ID).NotTo(BeEmpty())
		})

		It("rejects a request without items", func() {
			req := budiRequest(createdAt)
			req.ID = "R2"
			req.Items = nil
			_, err := service.Create(ctx, req)
			expectAppError(err, http.StatusBadRequest)
		})
	})

	Describe("UpdateStatus to BERHASIL", func() {
		It("posts the Budi reimbursement once", func() {
			updated, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(reimbursement.StatusBerhasil))

			var tx transactionDatamodel.Transaction
			Expect(db.Preload("Items").First(&tx, "id = ?", "R1").Error).To(Succeed())
			Expect(tx.Type).To(Equal(transaction.TypeExpense))
			Expect(*tx.ExpenseType).To(Equal(transaction.ExpenseTypeReimburse))
			Expect(tx.Description).To(Equal("Reimburse oleh: Budi - Transport ke client"))
			Expect(tx.GrandTotal.Equal(decimal.NewFromInt(150000))).To(BeTrue())
			Expect(tx.Items).To(HaveLen(1))
			Expect(tx.Items[0].ID).To(Equal("I1"))
			Expect(tx.Items[0].Total.Equal(decimal.NewFromInt(150000))).To(BeTrue())

			_, err = service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(countLedger("R1")).To(Equal(int64(1)))
		})

		It("copies totals, company, category and the original creation time", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())

			var tx transactionDatamodel.Transaction
			Expect(db.Preload("Items").First(&tx, "id = ?", "R1").Error).To(Succeed())
			Expect(tx.CompanyID).To(Equal(int64(3)))
			Expect(tx.Category).To(Equal("Transport"))
			Expect(tx.CreatedAt).To(BeTemporally("==", createdAt))
			Expect(tx.Items[0].Qty.Equal(decimal.NewFromInt(1))).To(BeTrue())
			Expect(tx.Items[0].Price.Equal(decimal.NewFromInt(150000))).To(BeTrue())
		})

		It("stores the transfer proof and publishes both events", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{
				Status:           "BERHASIL",
				TransferProofURL: strPtr("https://files.example/proof.png"),
			})
			Expect(err).NotTo(HaveOccurred())

			got, err := service.GetByID(ctx, "R1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.TransferProofURL).NotTo(BeNil())
			Expect(*got.TransferProofURL).To(Equal("https://files.example/proof.png"))

			Expect(publisher.types()).To(Equal([]string{
				events.EventTypeReimbursementStatusChanged,
				events.EventTypeReimbursementPosted,
			}))
		})

		It("does not publish a posted event when the ledger entry already exists", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			publisher.events = nil

			_, err = service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(publisher.types()).To(Equal([]string{events.EventTypeReimbursementStatusChanged}))
		})

		It("leaves the status unchanged when posting fails", func() {
			Expect(db.Omit("Items").Create(&transactionDatamodel.Transaction{
				ID:         "OTHER",
				Date:       datamodel.NewDate(2024, time.January, 1),
				Type:       transaction.TypeExpense,
				GrandTotal: decimal.NewFromInt(1),
				CreatedAt:  createdAt,
				UpdatedAt:  createdAt,
			}).Error).To(Succeed())
			Expect(db.Create(&transactionDatamodel.TransactionItem{
				ID:            "I1",
				TransactionID: "OTHER",
				Name:          "occupied",
				Qty:           decimal.NewFromInt(1),
				Price:         decimal.NewFromInt(1),
				Total:         decimal.NewFromInt(1),
			}).Error).To(Succeed())

			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{
				Status:           "BERHASIL",
				TransferProofURL: strPtr("https://files.example/proof.png"),
			})
			appErr := expectAppError(err, http.StatusInternalServerError)
			Expect(appErr.Code).To(Equal(internal.ErrCodePostingFailed))

			got, err := service.GetByID(ctx, "R1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusPending))
			Expect(got.TransferProofURL).To(BeNil())
			Expect(countLedger("R1")).To(BeZero())
			Expect(publisher.events).To(BeEmpty())
		})
	})

	Describe("non-posting transitions", func() {
		DescribeTable("never touch the ledger",
			func(status string, reason *string) {
				_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: status, RejectionReason: reason})
				Expect(err).NotTo(HaveOccurred())
				Expect(countAllLedger()).To(BeZero())

				got, err := service.GetByID(ctx, "R1")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(got.Status)).To(Equal(status))
			},
			Entry("PENDING", "PENDING", nil),
			Entry("PROSES", "PROSES", nil),
			Entry("DITOLAK", "DITOLAK", strPtr("Nota tidak lengkap")),
		)

		It("keeps the rejection reason only while rejected", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{
				Status:          "DITOLAK",
				RejectionReason: strPtr("Nota tidak lengkap"),
			})
			Expect(err).NotTo(HaveOccurred())

			got, _ := service.GetByID(ctx, "R1")
			Expect(got.RejectionReason).NotTo(BeNil())
			Expect(*got.RejectionReason).To(Equal("Nota tidak lengkap"))

			_, err = service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{
				Status:          "PROSES",
				RejectionReason: strPtr("ignored"),
			})
			Expect(err).NotTo(HaveOccurred())

			got, _ = service.GetByID(ctx, "R1")
			Expect(got.RejectionReason).To(BeNil())
		})

		It("keeps a transfer proof that a later update omits", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{
				Status:           "PROSES",
				TransferProofURL: strPtr("https://files.example/a.png"),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "PENDING"})
			Expect(err).NotTo(HaveOccurred())

			got, _ := service.GetByID(ctx, "R1")
			Expect(got.TransferProofURL).NotTo(BeNil())
			Expect(*got.TransferProofURL).To(Equal("https://files.example/a.png"))
		})
	})

	Describe("validation", func() {
		It("rejects an unknown status before touching the store", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "APPROVED"})
			expectAppError(err, http.StatusBadRequest)
			Expect(publisher.events).To(BeEmpty())
		})

		It("rejects a missing status", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{})
			expectAppError(err, http.StatusBadRequest)
		})

		It("requires a reason for DITOLAK", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "DITOLAK", RejectionReason: strPtr("  ")})
			appErr := expectAppError(err, http.StatusBadRequest)
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeReasonRequired)))

			got, _ := service.GetByID(ctx, "R1")
			Expect(got.Status).To(Equal(reimbursement.StatusPending))
		})

		It("returns not found for an unknown id", func() {
			_, err := service.UpdateStatus(ctx, "nope", &reimbursement.UpdateStatusDTO{Status: "PROSES"})
			appErr := expectAppError(err, http.StatusNotFound)
			Expect(appErr.Code).To(Equal(internal.ErrCodeReimbursementNotFound))
		})
	})

	Describe("transition policies", func() {
		It("permits DITOLAK to BERHASIL by default and posts", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "DITOLAK", RejectionReason: strPtr("salah")})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(countLedger("R1")).To(Equal(int64(1)))
		})

		It("refuses to leave a terminal status when locked", func() {
			locked := newService(reimbursement.TerminalLockedTransitions)
			_, err := locked.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())

			_, err = locked.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "PENDING"})
			appErr := expectAppError(err, http.StatusConflict)
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidTransition))

			_, err = locked.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(countLedger("R1")).To(Equal(int64(1)))
		})

		It("resolves policies from config names", func() {
			_, err := reimbursement.PolicyByName("terminal_locked")
			Expect(err).NotTo(HaveOccurred())
			_, err = reimbursement.PolicyByName("")
			Expect(err).NotTo(HaveOccurred())
			_, err = reimbursement.PolicyByName("strict")
			Expect(err).To(HaveOccurred())
		})

		It("allows every pair under the permissive policy", func() {
			for _, from := range reimbursement.AllStatuses {
				for _, to := range reimbursement.AllStatuses {
					Expect(reimbursement.PermissiveTransitions(from, to)).To(Succeed())
				}
			}
		})
	})

	Describe("UpdateDetails", func() {
		It("replaces items but keeps status and creation time", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "PROSES"})
			Expect(err).NotTo(HaveOccurred())

			req := budiRequest(createdAt.Add(time.Hour))
			req.Items = append(req.Items, transaction.ItemDTO{
				ID:    "I2",
				Name:  "Tol",
				Qty:   decimal.NewFromInt(1),
				Price: decimal.NewFromInt(20000),
				Total: decimal.NewFromInt(20000),
			})
			req.GrandTotal = decimal.NewFromInt(170000)

			updated, err := service.UpdateDetails(ctx, "R1", req)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(reimbursement.StatusProses))
			Expect(updated.CreatedAt).To(BeTemporally("==", createdAt))
			Expect(updated.Items).To(HaveLen(2))
			Expect(updated.Items[1].ID).To(Equal("I2"))
			Expect(updated.GrandTotal.Equal(decimal.NewFromInt(170000))).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("keeps the ledger entry of an approved reimbursement", func() {
			_, err := service.UpdateStatus(ctx, "R1", &reimbursement.UpdateStatusDTO{Status: "BERHASIL"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, "R1")).To(Succeed())
			_, err = service.GetByID(ctx, "R1")
			expectAppError(err, http.StatusNotFound)
			Expect(countLedger("R1")).To(Equal(int64(1)))
		})
	})
})
