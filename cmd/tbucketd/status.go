package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaygate/tbucket/internal/app"
)

func newStatusCommand(a *app.App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "report host resource usage alongside a running tbucketd's limiter metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(a, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:9090", "base URL of a running tbucketd serve")
	return cmd
}

func runStatus(a *app.App, addr string) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return err
	}
	pct, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil {
		return err
	}

	fmt.Printf("host: memory %s/%s used (%.1f%%), cpu %.1f%%\n",
		units.BytesSize(float64(vm.Used)), units.BytesSize(float64(vm.Total)), vm.UsedPercent,
		firstOrZero(pct))

	client := &http.Client{Timeout: defaultDialTimeout}
	resp, err := client.Get(addr + "/status")
	if err != nil {
		a.Logger().Warn("status: could not reach tbucketd serve", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return err
	}
	fmt.Printf("limiter %q: %d permits available, %d waiting, cycle %d, gc_percent=%d\n",
		st.Limiter, st.AvailablePermits, st.WaitingGoroutines, st.CurrentCycle, st.GCPercent)
	return nil
}

func firstOrZero(pct []float64) float64 {
	if len(pct) == 0 {
		return 0
	}
	return pct[0]
}
