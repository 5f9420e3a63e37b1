// WVOID-FM Broadcast Core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command wvoidctl is a small operator CLI for inspecting the station's
// schedule without starting the broadcast daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wvoid-fm/broadcast/internal/schedule"
)

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "schedule":
		runSchedule(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wvoidctl schedule <validate|now> [flags]")
}

func runSchedule(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "validate":
		validateSchedule(args[1:])
	case "now":
		showNow(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func validateSchedule(args []string) {
	fs := flag.NewFlagSet("schedule validate", flag.ExitOnError)
	path := fs.String("schedule", defaultSchedulePath(), "path to schedule.yaml")
	_ = fs.Parse(args)

	if _, err := schedule.Load(*path); err != nil {
		fmt.Fprintf(os.Stderr, "invalid schedule: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func showNow(args []string) {
	fs := flag.NewFlagSet("schedule now", flag.ExitOnError)
	path := fs.String("schedule", defaultSchedulePath(), "path to schedule.yaml")
	at := fs.String("at", "", "override time, format \"2006-01-02 15:04\"")
	_ = fs.Parse(args)

	sched, err := schedule.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load schedule: %v\n", err)
		os.Exit(1)
	}

	when := time.Now()
	if *at != "" {
		parsed, err := time.ParseInLocation("2006-01-02 15:04", *at, time.Local)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --at format: %v\n", err)
			os.Exit(1)
		}
		when = parsed
	}

	resolved, err := schedule.NewResolver(sched).Resolve(when)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve schedule: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s %s — %s (%s)\n", weekdayNames[when.Weekday()], when.Format("15:04"), resolved.Show.Name, resolved.Show.ShowID)
}

func defaultSchedulePath() string {
	home, _ := os.UserHomeDir()
	return home + "/.wvoid/schedule.yaml"
}
