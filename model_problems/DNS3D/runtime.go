package DNS3D

import (
	"math"
	"strconv"
)

// RunController owns the simulation clock
type RunController interface {
	HasNextStep() bool
	CurrentTime() float64
	AdvanceTime()
	ShouldWrite() bool
	TimeIndex() int
	TimeName() string
	DeltaT() float64
}

/*
RunTime is a fixed step clock. Time is computed from the step count rather
than accumulated, so t = StartTime + (index - StartIndex) * dt exactly as a
restart would compute it. Writes happen every round(WriteInterval/dt) steps
counted from index zero, and at the last step.
*/
type RunTime struct {
	StartTime, EndTime float64
	StartIndex         int
	DT                 float64
	WriteSteps         int
	index              int
}

func NewRunTime(StartTime, EndTime, dt, WriteInterval float64, StartIndex int) (rt *RunTime) {
	rt = &RunTime{
		StartTime:  StartTime,
		EndTime:    EndTime,
		StartIndex: StartIndex,
		DT:         dt,
		WriteSteps: int(math.Max(1, math.Round(WriteInterval/dt))),
		index:      StartIndex,
	}
	return
}

// HasNextStep is false once the next step would pass EndTime by more than
// half a step
func (rt *RunTime) HasNextStep() bool {
	return rt.CurrentTime()+0.5*rt.DT < rt.EndTime
}

func (rt *RunTime) CurrentTime() float64 {
	return rt.StartTime + float64(rt.index-rt.StartIndex)*rt.DT
}

func (rt *RunTime) AdvanceTime() { rt.index++ }

func (rt *RunTime) ShouldWrite() bool {
	return rt.index%rt.WriteSteps == 0 || !rt.HasNextStep()
}

func (rt *RunTime) TimeIndex() int { return rt.index }

func (rt *RunTime) TimeName() string {
	return strconv.FormatFloat(rt.CurrentTime(), 'g', 8, 64)
}

func (rt *RunTime) DeltaT() float64 { return rt.DT }
