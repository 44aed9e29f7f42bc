package sim_test

import (
	"context"
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/sim"
)

var _ = Describe("Simulator", func() {
	var rc config.RunConfig

	BeforeEach(func() {
		rc = config.RunPresets["quick"]
		rc.MaxTime = 0.05
		rc.Epsilon = 1e-12
		rc.SaveEvery = 20
	})

	run := func(material string) *sim.Result {
		cfg, err := config.DefaultConfig().WithMaterial(material)
		Expect(err).NotTo(HaveOccurred())
		s, err := sim.New(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		res, err := s.Run(context.Background(), rc)
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	Context("with hot water entering a cold sink", func() {
		It("heats the plate and keeps the inlet fixed", func() {
			res := run("aluminum")
			first := res.Snapshots[0]
			last, ok := res.Final()
			Expect(ok).To(BeTrue())

			Expect(last.Fluid[0]).To(Equal(first.Fluid[0]))
			Expect(mean(last.Plate)).To(BeNumerically(">", mean(first.Plate)))
			Expect(last.Fluid[1]).To(BeNumerically(">", first.Fluid[1]))
		})

		It("warms an aluminium plate faster than a steel one", func() {
			al := run("aluminum")
			ss := run("steel")

			a, _ := al.Final()
			s, _ := ss.Final()
			Expect(mean(a.Plate)).To(BeNumerically(">", mean(s.Plate)))
			Expect(ss.Plan.SubSteps).To(BeNumerically("<", al.Plan.SubSteps))
		})

		It("rebuilds every snapshot onto the layout", func() {
			res := run("aluminum")
			for _, snap := range res.Snapshots {
				f, err := snap.Fields(res.Layout)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.Fins).To(HaveLen(res.Layout.Fins))
				Expect(f.NodeCount()).To(Equal(1860))
			}
		})
	})

	Context("when run close to steady state on a coarse grid", func() {
		It("settles the energy residual", func() {
			cfg := config.DefaultConfig()
			cfg.Grid = config.GridConfig{FluidNodes: 20, PlateNx: 20, PlateNy: 8, FinNr: 6, FinNtheta: 10}
			rc.MaxTime = 400
			rc.Epsilon = 0.01
			rc.SaveEvery = 500

			s, err := sim.New(cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			res, err := s.Run(context.Background(), rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(sim.Converged))
			Expect(len(res.Energy)).To(BeNumerically(">", 4))

			late := res.Energy[len(res.Energy)/2:]
			for _, eb := range late {
				Expect(math.IsNaN(eb.Residual)).To(BeFalse())
				Expect(eb.Residual).To(BeNumerically("<", 2))
			}

			// The fins take heat from the plate without returning it, so the
			// residual tends to a constant offset instead of zero. It must
			// approach that offset, changing less in the second half of the
			// late window than in the first.
			mid := len(late) / 2
			early := math.Abs(late[mid].Residual - late[0].Residual)
			final := math.Abs(late[len(late)-1].Residual - late[mid].Residual)
			Expect(final).To(BeNumerically("<", early))
		})
	})

	Context("when the convergence threshold is loose", func() {
		It("stops on the first step", func() {
			rc.Epsilon = 1e9
			res := run("aluminum")
			Expect(res.Status).To(Equal(sim.Converged))
			Expect(res.StepsTaken).To(Equal(1))
		})
	})
})

var _ = Describe("Status", func() {
	DescribeTable("text round trip",
		func(s sim.Status, text string) {
			b, err := json.Marshal(s)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(b)).To(Equal(`"` + text + `"`))

			var back sim.Status
			Expect(json.Unmarshal(b, &back)).To(Succeed())
			Expect(back).To(Equal(s))
		},
		Entry("initializing", sim.Initializing, "initializing"),
		Entry("stepping", sim.Stepping, "stepping"),
		Entry("converged", sim.Converged, "converged"),
		Entry("timed out", sim.TimedOut, "timed_out"),
	)

	It("rejects unknown names", func() {
		var s sim.Status
		Expect(s.UnmarshalText([]byte("exploded"))).NotTo(Succeed())
	})
})

var _ = Describe("Progress", func() {
	It("formats a line in Celsius", func() {
		p := sim.Progress{Time: 1.5, MaxRate: 0.00123, FluidMean: 353.15, PlateMean: 323.15, FinMean: 303.15, Percent: 50}
		Expect(p.Line()).To(Equal("1.50|1.23e-03|80.0|50.0|30.0|50.0"))
	})
})

func mean(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}
