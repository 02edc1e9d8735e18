// Command gen-gaitlog generates synthetic motion logs for testing replay.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/vitalsense-data/stride.report/internal/sensor"
)

func main() {
	output := flag.String("o", "walk.jsonl", "output path")
	seconds := flag.Int("n", 60, "seconds of walking to generate")
	rate := flag.Int("rate", 50, "sample rate in Hz")
	profile := flag.String("profile", sensor.ProfileSteady,
		"gait profile: "+strings.Join(sensor.ValidProfiles, ", "))
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	walker := sensor.NewWalker(*profile, *rate, *seed)
	at := time.Now().UTC()
	step := time.Second / time.Duration(*rate)
	total := *seconds * *rate

	for i := 0; i < total; i++ {
		line, err := walker.Next(at).Marshal()
		if err != nil {
			log.Fatalf("failed to marshal reading: %v", err)
		}
		w.Write(line)
		w.WriteByte('\n')
		at = at.Add(step)
	}

	log.Printf("wrote %d readings (%ds of %s gait at %dHz) to %s",
		total, *seconds, *profile, *rate, *output)
}
