// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/spf13/cobra"

	"github.com/openastro/mountctl/pkg/mount"
)

var (
	recordServer   string
	recordOrg      string
	recordBucket   string
	recordInterval float64
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record mount status into InfluxDB",
	Long: `Poll both axes and write each sample to InfluxDB as points in the
mount.status measurement, tagged by axis. Missed polls are skipped, the
gap stays visible in the series.

The write token is read from the INFLUX_TOKEN environment variable. A
--token flag is intentionally not provided to avoid leaking credentials
in shell history.

Stop with Ctrl+C; poll statistics are printed on exit.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordServer, "influx-server", envOr("INFLUX_SERVER", "http://localhost:9999"), "InfluxDB server URL")
	recordCmd.Flags().StringVar(&recordOrg, "org", "openastro", "InfluxDB organization")
	recordCmd.Flags().StringVar(&recordBucket, "bucket", "mount", "InfluxDB bucket")
	recordCmd.Flags().Float64Var(&recordInterval, "interval", 1.0, "Poll interval in seconds")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	m, client, connInfo, err := OpenMount(ctx, true)
	if err != nil {
		return err
	}
	defer client.Close()

	influx := influxdb2.NewClient(recordServer, os.Getenv("INFLUX_TOKEN"))
	defer influx.Close()
	// Non-blocking write client
	writeApi := influx.WriteApi(recordOrg, recordBucket)
	defer writeApi.Close()
	// Write failures surface on a channel, not on WritePoint
	errorsCh := writeApi.Errors()
	go func() {
		for err := range errorsCh {
			log.Printf("influx write error: %v", err)
		}
	}()

	fmt.Printf("Recording %s -> %s (org %s, bucket %s) every %.2gs\n",
		connInfo, recordServer, recordOrg, recordBucket, recordInterval)

	stats := mount.NewStatistics()
	interval := time.Duration(recordInterval * float64(time.Second))
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			writeApi.Flush()
			stats.CalculateRates()
			fmt.Println()
			fmt.Println(stats)
			return nil
		case <-ticker.C:
		}

		values := m.CurrentValues()
		stats.Update(values)
		now := time.Now()
		for axis, v := range values {
			fields := map[string]interface{}{
				"position":    v.Position,
				"goto_target": v.GotoTarget,
				"step_period": v.StepPeriod,
				"tracking":    v.Status.Tracking,
				"ccw":         v.Status.CCW,
				"fast_speed":  v.Status.FastSpeed,
				"stopped":     v.Status.Stopped,
				"blocked":     v.Status.Blocked,
				"init_done":   v.Status.InitDone,
			}
			if p, err := m.Params(axis); err == nil {
				fields["position_degrees"] = p.CountsToDegrees(float64(v.Position))
			}
			pt := influxdb2.NewPoint("mount.status",
				map[string]string{"axis": fmt.Sprintf("%d", axis)},
				fields,
				now,
			)
			// write asynchronously
			writeApi.WritePoint(pt)
		}
	}
}
