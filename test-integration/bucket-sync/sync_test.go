package integration

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/writer"
	"github.com/stacklok/toolhive-bucket-sync/test-integration/bucket-sync/helpers"
)

func openBuckets(path string) (*writer.GormWriter, func()) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	Expect(err).NotTo(HaveOccurred())
	w, err := writer.NewGormWriter(db)
	Expect(err).NotTo(HaveOccurred())

	return w, func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		_ = sqlDB.Close()
	}
}

var _ = Describe("Bucket synchronization", func() {
	var (
		tempDir    string
		sqlitePath string
		server     *helpers.ServerTestHelper
		modified   time.Time
	)

	BeforeEach(func() {
		tempDir = createTempDir("bucket-sync-")
		sqlitePath = filepath.Join(tempDir, "buckets.db")
		modified = time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

		seed := helpers.WriteSeedFile(tempDir,
			helpers.NewSourceDocument("/alpha", "Alpha", modified),
			helpers.NewSourceDocument("/beta", "Beta", modified),
		)
		configPath := helpers.WriteConfigYAML(tempDir, seed, sqlitePath)

		server = helpers.NewServerTestHelper(ctx, configPath, helpers.FreePort())
		Expect(server.Migrate()).To(Succeed())

		By("seeding a bucket whose source is gone and a stale one")
		w, closeDB := openBuckets(sqlitePath)
		Expect(w.StoreBucket(ctx, &records.TargetRecord{
			ID:       "/gone",
			FullName: "buckets/gone",
			Modified: modified,
		})).To(Succeed())
		Expect(w.StoreBucket(ctx, &records.TargetRecord{
			ID:          "/beta",
			FullName:    "buckets/beta",
			DisplayName: "Stale",
			Modified:    modified.Add(-24 * time.Hour),
		})).To(Succeed())
		closeDB()
	})

	AfterEach(func() {
		Expect(server.StopServer()).To(Succeed())
		cleanupTempDir(tempDir)
	})

	It("reconciles the bucket store with the sources", func() {
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)

		readiness, err := server.GetReadiness()
		Expect(err).NotTo(HaveOccurred())
		Expect(readiness.Status).To(Equal("ready"))

		cycle := server.WaitForCycle(status.CyclePhaseComplete, 15*time.Second)
		Expect(cycle.LeaderChanges).To(BeNumerically(">=", 1))

		By("reporting nothing left to apply")
		Eventually(func() (bool, error) {
			plan, err := server.GetPlan()
			if err != nil {
				return false, err
			}
			return plan.Empty(), nil
		}, 10*time.Second, 200*time.Millisecond).Should(BeTrue())

		readiness, err = server.GetReadiness()
		Expect(err).NotTo(HaveOccurred())
		Expect(readiness.Leader).To(BeTrue())

		Expect(server.StopServer()).To(Succeed())

		By("checking the bucket store")
		w, closeDB := openBuckets(sqlitePath)
		defer closeDB()

		index, err := w.ListIndex(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(index).To(HaveLen(2))
		Expect(index).To(HaveKey("/alpha"))
		Expect(index).To(HaveKey("/beta"))
		Expect(index).NotTo(HaveKey("/gone"))

		beta, err := w.GetBucket(ctx, "/beta")
		Expect(err).NotTo(HaveOccurred())
		Expect(beta.DisplayName).To(Equal("Beta"))
		Expect(beta.Modified.Equal(modified)).To(BeTrue())

		st, err := w.GetStatus(ctx, "/alpha")
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Suspended).To(BeFalse())
	})

	It("keeps the previous status across restarts", func() {
		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)
		first := server.WaitForCycle(status.CyclePhaseComplete, 15*time.Second)
		Expect(server.StopServer()).To(Succeed())

		Expect(server.StartServer()).To(Succeed())
		server.WaitForServerReady(10 * time.Second)

		Eventually(func() (int, error) {
			restored, err := server.GetStatus()
			if err != nil || restored == nil {
				return 0, err
			}
			return restored.LeaderChanges, nil
		}, 10*time.Second, 200*time.Millisecond).Should(BeNumerically(">=", first.LeaderChanges))
	})
})
