// Command ecsprofile runs a synthetic create/add/query/remove workload
// through a World and captures a CPU, allocation, or wall-clock profile of
// it, exercising the runtime schema registry the way a create/query/move
// heavy game system would.
//
// Profiling:
//
//	go build ./cmd/ecsprofile
//	./ecsprofile -mode=cpu
//	go tool pprof -http=:8000 cpu.pprof
package main

import (
	"flag"
	"fmt"
	"os"

	ecs "github.com/oasys-works/aecs"
	"github.com/felixge/fgprof"
	"github.com/pkg/profile"
)

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu, mem, or fgprof")
	rounds := flag.Int("rounds", 50, "number of fresh worlds to run the workload against")
	iters := flag.Int("iters", 10000, "query/move iterations per world")
	entities := flag.Int("entities", 1000, "entities created per world")
	flag.Parse()

	switch *mode {
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		run(*rounds, *iters, *entities)
		p.Stop()
	case "mem":
		p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
		run(*rounds, *iters, *entities)
		p.Stop()
	case "fgprof":
		f, err := os.Create("fgprof.pprof")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		stop := fgprof.Start(f, fgprof.FormatPprof)
		run(*rounds, *iters, *entities)
		if err := stop(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown -mode %q (want cpu, mem, or fgprof)\n", *mode)
		os.Exit(1)
	}
}

// run exercises the full structural-change pipeline each round: register
// two components, spawn numEntities carrying both, then repeatedly iterate
// the matching query summing one component's fields into the other's,
// occasionally churning a component off and back on to stress the
// archetype graph's cached transition edges.
func run(rounds, iters, numEntities int) {
	for round := 0; round < rounds; round++ {
		w, err := ecs.NewWorld(ecs.WorldOptions{})
		if err != nil {
			panic(err)
		}
		comp1, err := w.RegisterUniformComponent(ecs.F64, "v", "w")
		if err != nil {
			panic(err)
		}
		comp2, err := w.RegisterUniformComponent(ecs.F64, "v", "w")
		if err != nil {
			panic(err)
		}

		ids := make([]ecs.EntityId, 0, numEntities)
		for i := 0; i < numEntities; i++ {
			id, err := w.CreateEntity()
			if err != nil {
				panic(err)
			}
			if err := w.AddComponent(id, comp1, map[string]float64{"v": 1, "w": 2}); err != nil {
				panic(err)
			}
			if err := w.AddComponent(id, comp2, map[string]float64{"v": 3, "w": 4}); err != nil {
				panic(err)
			}
			ids = append(ids, id)
		}

		query := w.Query(comp1, comp2)
		for i := 0; i < iters; i++ {
			for _, a := range query.Archetypes() {
				v1, err := a.Float64Column(comp1, "v")
				if err != nil {
					panic(err)
				}
				v2, err := a.Float64Column(comp2, "v")
				if err != nil {
					panic(err)
				}
				for row := range v1 {
					v1[row] += v2[row]
				}
			}
			if i%997 == 0 && len(ids) > 0 {
				victim := ids[i%len(ids)]
				if w.HasComponent(victim, comp2) {
					w.RemoveComponentDeferred(victim, comp2)
				} else {
					w.AddComponentDeferred(victim, comp2, map[string]float64{"v": 3, "w": 4})
				}
				if err := w.Flush(); err != nil {
					panic(err)
				}
			}
		}
		if err := w.Flush(); err != nil {
			panic(err)
		}
	}
}
