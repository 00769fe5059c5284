package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/tvossen/corechess/internal/engine"
	"github.com/tvossen/corechess/internal/store"
	"github.com/tvossen/corechess/internal/uci"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	ttSizeMB := 64

	dbDir, err := store.DefaultDatabaseDir()
	var session *store.Store
	if err != nil {
		log.Printf("session store unavailable, continuing without persistence: %v", err)
	} else {
		session, err = store.Open(dbDir)
		if err != nil {
			log.Printf("session store unavailable, continuing without persistence: %v", err)
		} else {
			defer session.Close()
			if settings, err := session.LoadSettings(); err == nil {
				ttSizeMB = settings.TTSizeMB
			}
		}
	}

	eng := engine.NewEngine(ttSizeMB)

	protocol := uci.New(eng, session)
	protocol.Run()
}
