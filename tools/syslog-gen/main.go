// Command syslog-gen writes synthetic syslog lines in the default entry layout,
// for benchmarking syslogfc and feeding its sinks.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	facilities = []string{"auth", "cron", "daemon", "kern", "mail", "user", "local0"}
	priorities = []string{"debug", "info", "info", "info", "notice", "warning", "err", "crit"}
	tags       = []string{"sshd", "CRON", "systemd", "kernel", "postfix", "app"}
)

func main() {
	count := flag.Int("n", 10000, "number of lines to write, 0 for unlimited")
	rps := flag.Int("rps", 0, "lines per second limit, 0 for unlimited")
	invalid := flag.Float64("invalid", 0, "fraction of lines with an invalid priority")
	layout := flag.String("ts", "Mon Jan 02 15:04:05 2006", "Go layout of the timestamp")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var limiter *rate.Limiter
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), *rps/10+1)
	}

	rnd := rand.New(rand.NewSource(*seed))
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	start := time.Now()
	ts := start.Add(-24 * time.Hour)
	written := 0
	for *count == 0 || written < *count {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		ts = ts.Add(time.Duration(rnd.Intn(2000)) * time.Millisecond)
		priority := priorities[rnd.Intn(len(priorities))]
		if rnd.Float64() < *invalid {
			priority = "bogus"
		}
		_, err := fmt.Fprintf(out, "%s %s.%s %s: request %s handled in %dms\n",
			ts.Format(*layout),
			facilities[rnd.Intn(len(facilities))],
			priority,
			tags[rnd.Intn(len(tags))],
			uuid.NewString(),
			rnd.Intn(500))
		if err != nil {
			log.Fatalf("write failed: %v", err)
		}
		written++
	}

	if err := out.Flush(); err != nil {
		log.Fatalf("flush failed: %v", err)
	}
	elapsed := time.Since(start)
	log.Printf("wrote %d lines in %s (%.0f lines/s)", written, elapsed.Round(time.Millisecond), float64(written)/elapsed.Seconds())
}
