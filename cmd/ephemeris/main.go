// Command ephemeris runs a scenario headless and prints body positions per
// tick. Useful for eyeballing orbits and diffing scenario edits without
// standing up the full server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/orbital-visualizer/scene"
	"github.com/signalsfoundry/orbital-visualizer/simclock"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/solar_system.json", "scenario JSON path")
	duration := flag.Duration("duration", 10*time.Second, "total wall-clock run time")
	tick := flag.Duration("tick", 1*time.Second, "tick interval")
	speed := flag.Float64("speed", 1, "simulation speed multiplier")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	bodyID := flag.String("body", "", "print only this body (empty prints all)")
	flag.Parse()

	f, err := os.Open(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open scenario: %v\n", err)
		os.Exit(1)
	}
	sc, err := scene.LoadScenario(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load scenario: %v\n", err)
		os.Exit(1)
	}

	engine, err := scene.NewEngine(sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	clock := simclock.NewClock(*speed)
	mode := simclock.RealTime
	if *accelerated {
		mode = simclock.Accelerated
	}
	driver := simclock.NewDriver(clock, *tick, mode)

	driver.AddListener(engine.OnTick)
	driver.AddListener(func(simTime float64) {
		frame, ok := engine.Latest()
		if !ok {
			return
		}
		fmt.Printf("t=%.2f\n", frame.Time)
		for _, b := range frame.Bodies {
			if *bodyID != "" && b.ID != *bodyID {
				continue
			}
			fmt.Printf("  %-12s (%10.4f, %10.4f, %10.4f) spin=%6.1f°\n",
				b.ID, b.Position.X, b.Position.Y, b.Position.Z, b.SpinDeg)
		}
	})

	fmt.Printf("scenario=%s bodies=%d duration=%s tick=%s speed=%.1f\n",
		sc.Name, sc.Len(), *duration, *tick, *speed)

	done := driver.Start(context.Background(), *duration)
	<-done
	fmt.Println("done.")
}
