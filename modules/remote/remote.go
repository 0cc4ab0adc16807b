// Package remote drives an instrument through a lab gateway speaking
// socket.io over websocket. Arm uploads the lowered sequences as JSON; Run
// triggers execution and waits for the gateway's acquisition event. The
// gateway wraps the vendor SDK on the instrument host.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/qforge-dev/qforge/internal/config"
	"github.com/qforge-dev/qforge/internal/ctxlog"
	"github.com/qforge-dev/qforge/internal/registry"
	"github.com/qforge-dev/qforge/internal/result"
	"github.com/qforge-dev/qforge/internal/schedule"
	"github.com/qforge-dev/qforge/internal/seq"
)

const namespace = "/instruments"

func init() {
	registry.Register("remote", New)
}

// opResult passes one gateway response through the done channel.
type opResult struct {
	buffers []result.Buffer
	err     error
}

// Driver is one connected gateway instrument.
type Driver struct {
	name      string
	io        *socket.Socket
	connected atomic.Bool
	done      chan opResult
}

// New connects to the gateway named by the instrument's address.
func New(ctx context.Context, inst config.Instrument) (registry.Driver, error) {
	logger := ctxlog.FromContext(ctx).With("driver", "remote", "instrument", inst.Name, "address", inst.Address)

	parsedURL, err := url.Parse(inst.Address)
	if err != nil {
		return nil, fmt.Errorf("instrument %q: parsing gateway address: %w", inst.Name, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("instrument %q: gateway address %q needs scheme and host", inst.Name, inst.Address)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	d := &Driver{name: inst.Name, io: io, done: make(chan opResult, 1)}

	io.On(types.EventName("connect"), func(...any) {
		d.connected.Store(true)
		logger.Info("Gateway connected.", "sid", io.Id())
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				d.done <- opResult{err: err}
				return
			}
		}
		d.done <- opResult{err: fmt.Errorf("gateway connection failed")}
	})
	io.On(types.EventName("acquisition"), func(data ...any) {
		d.done <- parseAcquisition(data)
	})
	io.On(types.EventName("error"), func(data ...any) {
		d.done <- opResult{err: fmt.Errorf("gateway error: %v", data)}
	})

	io.Connect()
	return d, nil
}

// Arm serializes the schedule metadata and per-bus sequences and uploads
// them to the gateway.
func (d *Driver) Arm(ctx context.Context, sched *schedule.Schedule, sequences map[string]*seq.Sequence) error {
	logger := ctxlog.FromContext(ctx).With("driver", "remote", "instrument", d.name)

	payload := map[string]any{
		"instrument": d.name,
		"shots":      sched.Shots,
		"bins":       sched.Bins,
		"sequences":  map[string]any{},
	}
	seqs := payload["sequences"].(map[string]any)
	for bus, sequence := range sequences {
		seqs[bus] = map[string]any{
			"port":      sequence.Port,
			"program":   sequence.String(),
			"waveforms": sequence.Waveforms,
		}
	}
	var windows []map[string]any
	for _, acq := range sched.Acquisitions {
		if _, mine := sequences[acq.Bus]; !mine {
			continue
		}
		windows = append(windows, map[string]any{
			"bus":                acq.Bus,
			"start":              acq.Start,
			"integration_length": acq.IntegrationLength,
			"bins":               acq.Bins,
		})
	}
	payload["acquisitions"] = windows

	logger.Debug("Uploading sequences.", "buses", len(sequences), "windows", len(windows))
	if err := d.io.Emit("arm", payload); err != nil {
		return fmt.Errorf("instrument %q: arming gateway: %w", d.name, err)
	}
	return nil
}

// Run triggers execution and blocks until the gateway reports the
// acquisition buffers, the gateway errors, or ctx expires.
func (d *Driver) Run(ctx context.Context) ([]result.Buffer, error) {
	logger := ctxlog.FromContext(ctx).With("driver", "remote", "instrument", d.name)
	logger.Info("▶️ Remote run started.")

	if err := d.io.Emit("run", map[string]any{"instrument": d.name}); err != nil {
		return nil, fmt.Errorf("instrument %q: starting run: %w", d.name, err)
	}

	select {
	case <-ctx.Done():
		if d.connected.Load() {
			return nil, fmt.Errorf("instrument %q: timed out waiting for acquisition data", d.name)
		}
		return nil, fmt.Errorf("instrument %q: timed out before the gateway connected", d.name)
	case res := <-d.done:
		if res.err != nil {
			return nil, fmt.Errorf("instrument %q: %w", d.name, res.err)
		}
		logger.Info("✅ Remote run finished.", "buffers", len(res.buffers))
		return res.buffers, nil
	}
}

// Close disconnects from the gateway.
func (d *Driver) Close() error {
	d.io.Disconnect()
	return nil
}

// parseAcquisition decodes the gateway's acquisition payload through a JSON
// round trip, tolerating whatever map shape the socket layer hands us.
func parseAcquisition(data []any) opResult {
	if len(data) == 0 {
		return opResult{err: fmt.Errorf("gateway sent an empty acquisition event")}
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return opResult{err: fmt.Errorf("re-encoding acquisition payload: %w", err)}
	}
	var buffers []result.Buffer
	if err := json.Unmarshal(raw, &buffers); err != nil {
		return opResult{err: fmt.Errorf("decoding acquisition payload: %w", err)}
	}
	return opResult{buffers: buffers}
}
