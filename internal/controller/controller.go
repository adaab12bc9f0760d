package controller

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/Mosical/pico-venti/internal/control_loop"
	"github.com/Mosical/pico-venti/internal/curves"
	"github.com/Mosical/pico-venti/internal/fans"
	"github.com/Mosical/pico-venti/internal/sensors"
	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/Mosical/pico-venti/internal/util"
)

type State int

const (
	StateIdle State = iota
	StatePolling
	StateEvaluating
	StateActuating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateEvaluating:
		return "evaluating"
	case StateActuating:
		return "actuating"
	}
	return "unknown"
}

// Snapshot is the read-only end-of-cycle view of the whole system,
// published for the api, the statistics exporter and the cli.
type Snapshot struct {
	Time     time.Time                  `json:"time"`
	Cycle    uint64                     `json:"cycle"`
	Readings map[string]sensors.Reading `json:"readings"`
	Fans     map[string]fans.FanState   `json:"fans"`
}

// fanRuntime is the per-fan control state owned exclusively by the
// control cycle.
type fanRuntime struct {
	fan  fans.Fan
	loop *control_loop.DirectControlLoop

	// lastTarget is the target duty of the previous cycle, held during
	// stale-source grace periods and used for dead-band suppression.
	lastTarget int
	hasTarget  bool

	// failSafe marks the fan as driven by fault policy; fail-safe duty
	// bypasses ramp limiting.
	failSafe bool
}

// Controller runs the single sequential control cycle:
// poll all sensors, evaluate all curves, actuate all fans. All control
// decisions happen on this one goroutine; concurrent consumers only see
// the published snapshots.
type Controller struct {
	topology *Topology
	runtimes map[string]*fanRuntime

	pending  atomic.Pointer[Topology]
	snapshot atomic.Pointer[Snapshot]

	state State
	cycle uint64
}

func NewController(topology *Topology) *Controller {
	c := &Controller{
		topology: topology,
		state:    StateIdle,
	}
	c.adoptTopology(topology)
	return c
}

func (c *Controller) adoptTopology(topology *Topology) {
	topology.Activate()
	c.topology = topology

	runtimes := map[string]*fanRuntime{}
	for _, fan := range topology.Fans {
		rt := &fanRuntime{
			fan:  fan,
			loop: control_loop.NewDirectControlLoop(topology.Config.Controller.MaxDutyChangePerCycle),
		}
		if old, ok := c.runtimes[fan.GetId()]; ok {
			// carry the previous target across a reload so the ramp
			// limiter does not restart from zero
			rt.lastTarget = old.lastTarget
			rt.hasTarget = old.hasTarget
		}
		runtimes[fan.GetId()] = rt
	}
	c.runtimes = runtimes

	c.checkCycleBudget()
}

// checkCycleBudget warns when the worst-case measurement time of all
// sensors leaves no headroom within the configured cycle rate.
func (c *Controller) checkCycleBudget() {
	var budget time.Duration
	for _, sensor := range c.topology.Registry.Sensors() {
		budget += sensor.MeasurementLatency()
	}
	cycleRate := c.topology.Config.Controller.CycleRate
	if budget >= cycleRate {
		ui.Warning("Worst-case sensor poll time %v exceeds the cycle rate %v, cycles will overrun", budget, cycleRate)
	}
}

// SetPending schedules a new topology to take over at the next idle
// boundary. The currently active topology keeps running until then.
func (c *Controller) SetPending(topology *Topology) {
	c.pending.Store(topology)
}

// Snapshot returns the most recent end-of-cycle snapshot, or nil before
// the first cycle has completed.
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

func (c *Controller) Run(ctx context.Context) error {
	ui.Info("Starting control cycle with rate %v", c.topology.Config.Controller.CycleRate)

	tick := time.NewTicker(c.topology.Config.Controller.CycleRate)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping control cycle...")
			return nil
		case <-tick.C:
			c.Cycle()
		}
	}
}

// Cycle executes one full control cycle. Exported so the cli and tests
// can drive the controller deterministically without the ticker.
func (c *Controller) Cycle() {
	// configuration swaps only happen here, between cycles, so a cycle
	// never sees a half-updated topology
	if pending := c.pending.Swap(nil); pending != nil {
		ui.Info("Applying updated configuration")
		c.adoptTopology(pending)
	}

	c.state = StatePolling
	c.topology.Registry.PollAll()

	c.state = StateEvaluating
	targets := map[string]int{}
	for id, rt := range c.runtimes {
		targets[id] = c.computeTarget(rt)
	}

	c.state = StateActuating
	for id, rt := range c.runtimes {
		c.actuate(rt, targets[id])
	}

	c.state = StateIdle
	c.cycle++
	c.publishSnapshot()
}

// computeTarget decides the target duty for one fan, applying fault
// policy, zero-RPM handling and dead-band suppression.
func (c *Controller) computeTarget(rt *fanRuntime) int {
	fanId := rt.fan.GetId()
	curveId := rt.fan.GetCurveId()

	anyStale := false
	staleStreak := 0
	for _, sensorId := range c.topology.CurveSensors[curveId] {
		reading, ok := c.topology.Registry.Latest(sensorId)
		if !ok || reading.Status == sensors.StatusFault {
			// no valid value was ever seen for this source, there is
			// nothing safe to hold
			ui.Warning("Fan %s: sensor %s has no valid reading, failing safe", fanId, sensorId)
			return c.failSafeTarget(rt)
		}
		if reading.Status == sensors.StatusStale {
			anyStale = true
			if streak := c.topology.Registry.FaultStreak(sensorId); streak > staleStreak {
				staleStreak = streak
			}
		}
	}

	if anyStale {
		if staleStreak > c.topology.Config.Controller.FaultGraceCycles {
			ui.Warning("Fan %s: sensor fault persisted beyond %d cycles, failing safe", fanId, c.topology.Config.Controller.FaultGraceCycles)
			return c.failSafeTarget(rt)
		}
		// within the grace period, hold the previous target
		rt.failSafe = false
		return rt.lastTarget
	}

	curve, ok := curves.GetSpeedCurve(curveId)
	if !ok {
		ui.Warning("Fan %s: curve %s is not registered, failing safe", fanId, curveId)
		return c.failSafeTarget(rt)
	}

	demand, err := curve.Evaluate()
	if err != nil {
		ui.Warning("Fan %s: evaluating curve %s: %v", fanId, curveId, err)
		return c.failSafeTarget(rt)
	}

	target := demand
	if demand == 0 {
		// at or below the curve minimum the stop-or-floor decision is
		// absolute, dead-band hysteresis must not hold a residual duty
		if rt.fan.ShouldNeverStop() {
			target = curve.MinDuty()
		}
	} else if rt.hasTarget && int(math.Abs(float64(target-rt.lastTarget))) < c.topology.Config.Controller.DutyDeadBand {
		target = rt.lastTarget
	}

	rt.failSafe = false
	rt.lastTarget = target
	rt.hasTarget = true
	return target
}

func (c *Controller) failSafeTarget(rt *fanRuntime) int {
	rt.failSafe = true
	rt.lastTarget = fans.MaxDutyValue
	rt.hasTarget = true
	return fans.MaxDutyValue
}

// actuate drives one fan towards the target duty. Fail-safe targets are
// applied immediately, everything else goes through the ramp limiter.
func (c *Controller) actuate(rt *fanRuntime, target int) {
	fan := rt.fan
	current := fan.GetDuty()

	next := target
	if !rt.failSafe {
		adjustment := rt.loop.Loop(float64(target), float64(current))
		next = int(util.Coerce(math.Round(float64(current)+adjustment), fans.MinDutyValue, fans.MaxDutyValue))
	}

	if next == current && c.cycle > 0 {
		return
	}

	ui.Debug("Setting fan %s duty to %d", fan.GetId(), next)
	if err := fan.SetDuty(next); err != nil {
		// leave the output untouched, the next cycle retries
		ui.Error("Fan %s: %v", fan.GetId(), err)
	}
}

func (c *Controller) publishSnapshot() {
	fanStates := make(map[string]fans.FanState, len(c.topology.Fans))
	for _, fan := range c.topology.Fans {
		fanStates[fan.GetId()] = fan.State()
	}
	c.snapshot.Store(&Snapshot{
		Time:     time.Now(),
		Cycle:    c.cycle,
		Readings: c.topology.Registry.Snapshot(),
		Fans:     fanStates,
	})
}
