package system_test

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hinape/internal/physics"
	"github.com/san-kum/hinape/internal/rigidbody"
	"github.com/san-kum/hinape/internal/system"
)

type tickCounter struct {
	times []float64
}

func (c *tickCounter) OnTick(_ *system.System, t float64) { c.times = append(c.times, t) }

type failingKernel struct{}

func (failingKernel) Name() string                           { return "failing" }
func (failingKernel) Simulate(*system.System, float64) error { return errors.New("boom") }

func dynamicWithMass(m float64) *physics.Object {
	d := rigidbody.NewDynamic()
	d.SetMass(m)
	return physics.FromRigidBody(d)
}

var _ = Describe("System", func() {
	var sys *system.System

	BeforeEach(func() {
		sys = system.New()
	})

	Describe("Register", func() {
		It("stores the object under its id", func() {
			obj := dynamicWithMass(1)
			sys.Register(1, obj)

			got, ok := sys.Lookup(1)
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(obj))
			Expect(sys.Len()).To(Equal(1))
		})

		It("overwrites an existing entry", func() {
			first := dynamicWithMass(1)
			second := dynamicWithMass(5)
			sys.Register(7, first)
			sys.Register(7, second)

			got, _ := sys.Lookup(7)
			Expect(got).To(BeIdenticalTo(second))
			Expect(sys.Len()).To(Equal(1))
		})

		It("removes the entry when given nil", func() {
			sys.Register(3, dynamicWithMass(1))
			sys.Register(3, nil)

			_, ok := sys.Lookup(3)
			Expect(ok).To(BeFalse())
		})

		It("shares the object with other holders", func() {
			obj := dynamicWithMass(1)
			sys.Register(2, obj)

			Expect(obj.SwitchRigidBodyType(rigidbody.TypeStatic)).To(Succeed())

			got, _ := sys.Lookup(2)
			Expect(got.RigidBodyType()).To(Equal(rigidbody.TypeStatic))
		})

		It("lists ids in ascending order", func() {
			for _, id := range []uint32{9, 2, 5} {
				sys.Register(id, dynamicWithMass(1))
			}
			Expect(sys.IDs()).To(Equal([]uint32{2, 5, 9}))

			var visited []uint32
			sys.Each(func(id uint32, _ *physics.Object) { visited = append(visited, id) })
			Expect(visited).To(Equal([]uint32{2, 5, 9}))
		})
	})

	Describe("Tick", func() {
		It("leaves objects untouched under the placeholder kernel", func() {
			sys.Register(1, dynamicWithMass(2.0))

			Expect(sys.Tick(0.016)).To(Succeed())

			obj, ok := sys.Lookup(1)
			Expect(ok).To(BeTrue())
			Expect(obj.Mass()).To(Equal(2.0))
			Expect(obj.Position()).To(Equal(mgl64.Vec3{}))
			Expect(sys.Steps()).To(Equal(1))
			Expect(sys.Time()).To(BeNumerically("~", 0.016, 1e-12))
		})

		DescribeTable("rejects invalid dt",
			func(dt float64) {
				Expect(sys.Tick(dt)).To(MatchError(system.ErrInvalidDt))
				Expect(sys.Steps()).To(BeZero())
			},
			Entry("zero", 0.0),
			Entry("negative", -0.01),
			Entry("NaN", math.NaN()),
			Entry("Inf", math.Inf(1)),
		)

		It("notifies observers after each tick", func() {
			counter := &tickCounter{}
			sys.AddObserver(counter)

			Expect(sys.Tick(0.5)).To(Succeed())
			Expect(sys.Tick(0.5)).To(Succeed())

			Expect(counter.times).To(Equal([]float64{0.5, 1.0}))
		})

		It("surfaces kernel failures", func() {
			sys.SetKernel(failingKernel{})
			err := sys.Tick(0.1)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("boom"))
			Expect(sys.Steps()).To(BeZero())
		})
	})

	Describe("Destroy", func() {
		It("releases objects and rejects further ticks", func() {
			sys.Register(1, dynamicWithMass(1))
			sys.Destroy()
			sys.Destroy()

			Expect(sys.Len()).To(BeZero())
			Expect(sys.Destroyed()).To(BeTrue())
			Expect(sys.Tick(0.1)).To(MatchError(system.ErrDestroyed))
		})
	})

	Describe("Instance", func() {
		AfterEach(func() {
			system.Destroy()
		})

		It("returns the same system until destroyed", func() {
			a := system.Instance()
			Expect(system.Instance()).To(BeIdenticalTo(a))

			system.Destroy()
			Expect(a.Destroyed()).To(BeTrue())
			Expect(system.Instance()).NotTo(BeIdenticalTo(a))
		})

		It("tolerates destroy without an instance", func() {
			system.Destroy()
			Expect(func() { system.Destroy() }).NotTo(Panic())
		})
	})
})

var _ = Describe("Euler kernel", func() {
	var sys *system.System

	BeforeEach(func() {
		sys = system.New(system.WithKernel(system.NewEuler()))
	})

	It("accelerates dynamic bodies under gravity", func() {
		obj := dynamicWithMass(2)
		d, err := physics.Get[rigidbody.Dynamic](obj)
		Expect(err).NotTo(HaveOccurred())
		d.SetLinearDamping(0)
		sys.Register(1, obj)

		Expect(sys.Tick(0.1)).To(Succeed())

		Expect(obj.Velocity().Y()).To(BeNumerically("~", -0.981, 1e-9))
		Expect(obj.Position().Y()).To(BeNumerically("~", -0.0981, 1e-9))
		Expect(obj.Force()).To(Equal(mgl64.Vec3{}))
	})

	It("moves kinematic bodies along their velocity only", func() {
		k := rigidbody.NewKinematic()
		k.SetLinearVelocity(mgl64.Vec3{1, 0, 0})
		obj := physics.FromRigidBody(k)
		sys.Register(1, obj)

		Expect(sys.Tick(0.5)).To(Succeed())

		Expect(obj.Position()).To(Equal(mgl64.Vec3{0.5, 0, 0}))
		Expect(obj.Velocity()).To(Equal(mgl64.Vec3{1, 0, 0}))
	})

	It("never moves static bodies", func() {
		s := rigidbody.NewStatic()
		s.SetPosition(mgl64.Vec3{0, 3, 0})
		obj := physics.FromRigidBody(s)
		sys.Register(1, obj)

		for i := 0; i < 10; i++ {
			Expect(sys.Tick(0.1)).To(Succeed())
		}
		Expect(obj.Position()).To(Equal(mgl64.Vec3{0, 3, 0}))
	})

	It("skips empty objects", func() {
		empty, err := physics.New(physics.KindNone)
		Expect(err).NotTo(HaveOccurred())
		sys.Register(1, empty)

		Expect(sys.Tick(0.1)).To(Succeed())
	})
})

var _ = Describe("Verlet kernel", func() {
	It("integrates constant gravity exactly", func() {
		sys := system.New(system.WithKernel(system.NewVerlet()))
		obj := dynamicWithMass(1)
		d, err := physics.Get[rigidbody.Dynamic](obj)
		Expect(err).NotTo(HaveOccurred())
		d.SetLinearDamping(0)
		sys.Register(1, obj)

		for i := 0; i < 10; i++ {
			Expect(sys.Tick(0.1)).To(Succeed())
		}

		Expect(obj.Position().Y()).To(BeNumerically("~", -0.5*9.81, 1e-9))
		Expect(obj.Velocity().Y()).To(BeNumerically("~", -9.81, 1e-9))
		Expect(obj.Force()).To(Equal(mgl64.Vec3{}))
	})
})

var _ = Describe("Kernel registry", func() {
	It("builds every listed kernel", func() {
		names := system.ListKernels()
		Expect(names).To(ContainElements("euler", "placeholder", "verlet"))
		for _, name := range names {
			k, err := system.NewKernel(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(k.Name()).To(Equal(name))
		}
	})

	It("rejects unknown kernels", func() {
		_, err := system.NewKernel("rk45")
		Expect(err).To(MatchError(ContainSubstring("unknown kernel")))
	})
})
