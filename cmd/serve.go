// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openastro/mountctl/pkg/mount"
	"github.com/openastro/mountctl/pkg/synscan"
)

var (
	serveListen   string
	serveInterval float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the mount over HTTP and WebSocket",
	Long: `Bridge the controller to HTTP so dashboards and pointing software
don't need the wire protocol.

Endpoints:
  GET /api/status   Latest status snapshot as JSON
  GET /api/params   Axis parameters as JSON
  GET /api/ws       WebSocket: a snapshot is pushed after every poll, and
                    JSON commands are accepted in the other direction

WebSocket commands are objects like
  {"command": "goto",  "axis": 1, "degrees": 90, "rate": 5}
  {"command": "track", "axis": 2, "rate": -0.00418}
  {"command": "sync",  "axis": 1, "degrees": 0}
  {"command": "stop"}                               (axis 0 or omitted: both)
  {"command": "init",  "axis": 1}

Commands from all clients are serialized onto the single controller link.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:8502", "Listen address")
	serveCmd.Flags().Float64Var(&serveInterval, "interval", 1.0, "Status poll interval in seconds")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// axisStatus is the JSON shape of one axis in a snapshot.
type axisStatus struct {
	Position        int     `json:"position"`
	PositionDegrees float64 `json:"position_degrees"`
	GotoTarget      int     `json:"goto_target"`
	TargetDegrees   float64 `json:"target_degrees"`
	StepPeriod      int     `json:"step_period"`
	Tracking        bool    `json:"tracking"`
	CCW             bool    `json:"ccw"`
	FastSpeed       bool    `json:"fast_speed"`
	Stopped         bool    `json:"stopped"`
	Blocked         bool    `json:"blocked"`
	InitDone        bool    `json:"init_done"`
}

// mountStatus is one published snapshot. Stale marks missed polls; the axis
// data then repeats the last good sample.
type mountStatus struct {
	Time  time.Time             `json:"time"`
	Stale bool                  `json:"stale"`
	Axes  map[string]axisStatus `json:"axes"`
}

type serveCommand struct {
	Command string  `json:"command"`
	Axis    int     `json:"axis"`
	Degrees float64 `json:"degrees"`
	Rate    float64 `json:"rate"`
}

// mountServer owns the controller link. mu serializes commands and polls;
// statusCond wakes WebSocket pushers after every published snapshot.
type mountServer struct {
	mu sync.Mutex
	m  *mount.Mount

	statusMu   sync.RWMutex
	statusCond *sync.Cond
	status     mountStatus
}

func newMountServer(m *mount.Mount) *mountServer {
	s := &mountServer{m: m}
	s.statusCond = sync.NewCond(s.statusMu.RLocker())
	return s
}

// pollLoop publishes a snapshot per tick until ctx ends.
func (s *mountServer) pollLoop(ctx context.Context, interval time.Duration) error {
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Wake every pusher so handlers notice the shutdown.
			s.statusCond.Broadcast()
			return ctx.Err()
		case <-ticker.C:
		}

		s.mu.Lock()
		values := s.m.CurrentValues()
		status := mountStatus{
			Time:  time.Now(),
			Stale: len(values) == 0,
			Axes:  make(map[string]axisStatus, len(values)),
		}
		for axis, v := range values {
			as := axisStatus{
				Position:   v.Position,
				GotoTarget: v.GotoTarget,
				StepPeriod: v.StepPeriod,
				Tracking:   v.Status.Tracking,
				CCW:        v.Status.CCW,
				FastSpeed:  v.Status.FastSpeed,
				Stopped:    v.Status.Stopped,
				Blocked:    v.Status.Blocked,
				InitDone:   v.Status.InitDone,
			}
			if p, err := s.m.Params(axis); err == nil {
				as.PositionDegrees = p.CountsToDegrees(float64(v.Position))
				as.TargetDegrees = p.CountsToDegrees(float64(v.GotoTarget))
			}
			status.Axes[fmt.Sprintf("%d", axis)] = as
		}
		s.mu.Unlock()

		s.statusMu.Lock()
		if status.Stale {
			// Keep the last good axis data visible next to the flag.
			status.Axes = s.status.Axes
		}
		s.status = status
		s.statusMu.Unlock()
		s.statusCond.Broadcast()
	}
}

func (s *mountServer) StatusHandler(w http.ResponseWriter, r *http.Request) {
	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()
	writeJSON(w, status)
}

func (s *mountServer) ParamsHandler(w http.ResponseWriter, r *http.Request) {
	type axisParams struct {
		CountsPerRev    int     `json:"counts_per_rev"`
		TimerFreq       int     `json:"timer_freq"`
		StepPeriod      int     `json:"step_period"`
		BoardVersion    int     `json:"board_version"`
		CountsPerDegree float64 `json:"counts_per_degree"`
	}
	out := make(map[string]axisParams, len(synscan.Axes))
	s.mu.Lock()
	for _, axis := range synscan.Axes {
		p, err := s.m.Params(axis)
		if err != nil {
			continue
		}
		out[fmt.Sprintf("%d", axis)] = axisParams{
			CountsPerRev:    p.CountsPerRev,
			TimerFreq:       p.TimerFreq,
			StepPeriod:      p.StepPeriod,
			BoardVersion:    p.BoardVersion,
			CountsPerDegree: p.DegreesToCounts(1),
		}
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(v)
	if err != nil {
		log.Print(err)
		return
	}
	w.Write(data)
}

// StatusSocketHandler pushes one snapshot per poll and accepts commands.
func (s *mountServer) StatusSocketHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Close()

	// Read and process incoming commands
	go func() {
		for {
			var msg serveCommand
			if err := conn.ReadJSON(&msg); err != nil {
				cancel()
				conn.Close()
				return
			}
			if err := s.dispatch(msg); err != nil {
				log.Printf("ws command %q failed: %v", msg.Command, err)
			}
		}
	}()

	send := func(status mountStatus) error {
		data, err := json.Marshal(status)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()
	if err := send(status); err != nil {
		return
	}

	for {
		s.statusMu.RLock()
		s.statusCond.Wait()
		status := s.status
		s.statusMu.RUnlock()
		if ctx.Err() != nil {
			return
		}
		if err := send(status); err != nil {
			return
		}
	}
}

func (s *mountServer) dispatch(msg serveCommand) error {
	axis := synscan.Axis(msg.Axis)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Command {
	case "goto":
		rate := msg.Rate
		if rate == 0 {
			rate = 5.0
		}
		return s.m.BeginGoto(axis, msg.Degrees, rate)
	case "track":
		return s.m.Track(axis, msg.Rate)
	case "sync":
		return s.m.SetPositionDegrees(axis, msg.Degrees)
	case "stop":
		if msg.Axis == 0 {
			return s.m.StopAll()
		}
		return s.m.StopMotion(axis)
	case "init":
		return s.m.InitAxis(axis)
	default:
		return fmt.Errorf("unknown command %q", msg.Command)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// A bridge should come up even when the mount powers on late.
	m, client, connInfo, err := OpenMount(ctx, true)
	if err != nil {
		return err
	}
	defer client.Close()

	s := newMountServer(m)

	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.StatusHandler).Methods("GET")
	r.HandleFunc("/api/params", s.ParamsHandler).Methods("GET")
	r.HandleFunc("/api/ws", s.StatusSocketHandler)

	srv := &http.Server{
		Handler:     r,
		Addr:        serveListen,
		ReadTimeout: 15 * time.Second,
	}

	log.Printf("mount on %s, listening on http://%s", connInfo, serveListen)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pollLoop(ctx, time.Duration(serveInterval*float64(time.Second)))
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("server stopped")
	return nil
}
