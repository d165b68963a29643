package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ohowland/cgc_expand/internal/pkg/archive"
	"github.com/ohowland/cgc_expand/internal/pkg/formulation"
	"github.com/ohowland/cgc_expand/internal/pkg/loader"
	"github.com/ohowland/cgc_expand/internal/pkg/msg"
	"github.com/ohowland/cgc_expand/internal/pkg/results"
	"github.com/ohowland/cgc_expand/internal/pkg/solver"
)

func main() {
	caseDir := flag.String("case", "./config/case", "planning case directory")
	mongoConfig := flag.String("mongo", "", "MongoDB config path; empty disables archiving")
	flag.Parse()

	log.Println("[Main] Starting CGC_Expand v0.0.1")

	log.Println("[Main] Loading Case")
	c, err := loader.Load(*caseDir)
	if err != nil {
		panic(err)
	}
	log.Printf("[Main] Case %q: %d zones, %d resources, %d timepoints",
		c.Name, len(c.Sys.ZoneNames), len(c.Sys.ResourceNames), len(c.Idx.Timepoints()))

	pid, err := uuid.NewUUID()
	if err != nil {
		panic(err)
	}
	pub := msg.NewPublisher(pid)

	archiving := *mongoConfig != ""
	if archiving {
		log.Println("[Main] Connecting MongoDB Service")
		handler, err := archive.New(*mongoConfig, pub)
		if err != nil {
			panic(err)
		}
		go handler.Process()
		defer handler.StopProcess()
		pub.Publish(msg.Config, c.Tog)
	}

	log.Println("[Main] Building Formulation")
	pub.Publish(msg.Status, "building")
	inst, err := formulation.NewBuilder(c.Sys, c.Idx, c.Tog).Build()
	if err != nil {
		panic(err)
	}

	log.Println("[Main] Solving")
	pub.Publish(msg.Status, "solving")
	sol, err := solver.Solve(inst.LP)
	if err != nil {
		panic(err)
	}
	pub.Publish(msg.Status, "solved")

	store := results.New(inst, sol)
	log.Println("[Main] Solved:", store)

	if archiving {
		pub.Publish(msg.Solution, store.Report())
		// let the archiver drain before teardown
		time.Sleep(1 * time.Second)
	}

	log.Println("[Main] Done")
}
