package alerts_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubecostopt/costopt-backend/internal/alerts"
	"github.com/kubecostopt/costopt-backend/internal/types"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []types.AlertEvent
}

func (p *recordingPublisher) PublishAlert(event types.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

var _ = Describe("Alert lifecycle manager", func() {
	var (
		ctx       context.Context
		manager   *alerts.Manager
		publisher *recordingPublisher
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		publisher = &recordingPublisher{}
		manager = alerts.NewManager(alerts.NewMemoryStore(), publisher)
		now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	})

	Describe("raising alerts", func() {
		It("creates an alert and publishes an event", func() {
			alert, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "daily cost spiked", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(alert).NotTo(BeNil())
			Expect(alert.ID).NotTo(BeEmpty())
			Expect(alert.Resolved).To(BeFalse())
			Expect(publisher.count()).To(Equal(1))
		})

		It("suppresses a duplicate for the same cluster and type", func() {
			first, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "daily cost spiked", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).NotTo(BeNil())

			second, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityLow, "still spiking", now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeNil(), "duplicate raise must be a silent no-op")
			Expect(publisher.count()).To(Equal(1))
		})

		It("keeps different alert types independent", func() {
			_, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			alert, err := manager.Raise(ctx, "cluster-1", types.AlertBudgetThreshold, types.SeverityHigh, "over budget", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(alert).NotTo(BeNil())
		})

		It("keeps different clusters independent", func() {
			_, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			alert, err := manager.Raise(ctx, "cluster-2", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(alert).NotTo(BeNil())
		})

		It("allows a new alert once the previous one is resolved", func() {
			first, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.Resolve(ctx, first.ID, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())

			second, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike again", now.Add(2*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).NotTo(BeNil())
		})

		It("never slips a duplicate through concurrent raises", func() {
			const raisers = 16
			var wg sync.WaitGroup
			created := make(chan *alerts.Alert, raisers)
			for i := 0; i < raisers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					alert, err := manager.Raise(ctx, "cluster-1", types.AlertIdleResource, types.SeverityLow, "idle", now)
					Expect(err).NotTo(HaveOccurred())
					if alert != nil {
						created <- alert
					}
				}()
			}
			wg.Wait()
			close(created)

			var winners int
			for range created {
				winners++
			}
			Expect(winners).To(Equal(1))
		})
	})

	Describe("resolving alerts", func() {
		It("stamps resolved_at and flips the state exactly once", func() {
			raised, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())

			resolvedAt := now.Add(30 * time.Minute)
			resolved, err := manager.Resolve(ctx, raised.ID, resolvedAt)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.Resolved).To(BeTrue())
			Expect(resolved.ResolvedAt).NotTo(BeNil())
			Expect(*resolved.ResolvedAt).To(Equal(resolvedAt))
		})

		It("rejects resolving an unknown alert with NotFoundError", func() {
			_, err := manager.Resolve(ctx, "no-such-alert", now)
			Expect(types.IsNotFound(err)).To(BeTrue(), "got %v", err)
		})

		It("rejects a second resolve with InvalidStateError", func() {
			raised, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.Resolve(ctx, raised.ID, now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())

			_, err = manager.Resolve(ctx, raised.ID, now.Add(2*time.Hour))
			Expect(types.IsInvalidState(err)).To(BeTrue(), "got %v", err)
		})
	})

	Describe("listing alerts", func() {
		BeforeEach(func() {
			first, err := manager.Raise(ctx, "cluster-1", types.AlertCostSpike, types.SeverityHigh, "spike", now)
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.Raise(ctx, "cluster-1", types.AlertIdleResource, types.SeverityLow, "idle", now.Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.Raise(ctx, "cluster-2", types.AlertBudgetThreshold, types.SeverityHigh, "budget", now.Add(2*time.Hour))
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.Resolve(ctx, first.ID, now.Add(3*time.Hour))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns alerts newest first", func() {
			list, err := manager.List(ctx, alerts.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(3))
			for i := 1; i < len(list); i++ {
				Expect(list[i].DetectedAt.After(list[i-1].DetectedAt)).To(BeFalse())
			}
		})

		It("filters by cluster", func() {
			list, err := manager.List(ctx, alerts.Filter{ClusterUUID: "cluster-2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].AlertType).To(Equal(types.AlertBudgetThreshold))
		})

		It("filters by resolved state", func() {
			resolved := true
			list, err := manager.List(ctx, alerts.Filter{Resolved: &resolved})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].AlertType).To(Equal(types.AlertCostSpike))

			unresolved := false
			list, err = manager.List(ctx, alerts.Filter{Resolved: &unresolved})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
		})
	})
})
