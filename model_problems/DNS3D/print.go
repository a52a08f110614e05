package DNS3D

import (
	"fmt"
	"time"

	"github.com/notargets/dnsflux/utils"
)

func (c *DNS) PrintInitialization() {
	fmt.Printf("Case: [%s], %d x %d x %d cells\n", c.Input.Title,
		c.Input.Cells[0], c.Input.Cells[1], c.Input.Cells[2])
	fmt.Printf("Solving until EndTime = %8.5f with dt = %8.5g, %d PISO correctors\n",
		c.Input.EndTime, c.Run.DeltaT(), c.PISO.NCorrectors)
	fmt.Printf("Number of forced modes = %d\n", c.Forcing.ForcedCount())
	fmt.Printf("    step        time")
	fmt.Printf("           k     epsilon       power")
	fmt.Printf("  pIter     contErr      maxDiv\n")
}

func (c *DNS) PrintUpdate(steps int, elapsed, clock time.Duration) {
	format := "%12.4e"
	if c.Verbose {
		fmt.Printf("\nTime = %s\n", c.Run.TimeName())
		for _, sp := range c.Momentum {
			fmt.Println(sp)
		}
		for i, sp := range c.Report.Pressure {
			fmt.Println(sp)
			fmt.Println(c.Report.Continuity[i])
		}
		fmt.Printf("ExecutionTime = %.3f s  ClockTime = %.3f s\n", elapsed.Seconds(), clock.Seconds())
	}
	var (
		pIter   int
		contErr float64
	)
	for _, sp := range c.Report.Pressure {
		pIter += sp.NIterations
	}
	if n := len(c.Report.Continuity); n > 0 {
		contErr = c.Report.Continuity[n-1].Global
	}
	fmt.Printf("%8d%12.5f", steps, c.Run.CurrentTime())
	fmt.Printf(format, c.Properties.K)
	fmt.Printf(format, c.Properties.Epsilon)
	fmt.Printf(format, c.Properties.Power)
	fmt.Printf("%7d", pIter)
	fmt.Printf(format, contErr)
	fmt.Printf(format, c.Report.MaxAbsDivergence)
	fmt.Printf("\n")
}

func (c *DNS) PrintFinal(elapsed, clock time.Duration, steps int) {
	fmt.Printf("\nExecutionTime = %.3f s  ClockTime = %.3f s\n", elapsed.Seconds(), clock.Seconds())
	if c.Verbose {
		fmt.Println(utils.GetMemUsage())
	}
	if steps == 0 {
		return
	}
	rate := float64(elapsed.Microseconds()) / float64(c.Mesh.NCells()*steps)
	fmt.Printf("Rate of execution = %8.5f us/(cell*step) over %d steps\n", rate, steps)
}
