// Command garage-controller drives a garage door opener relay from a push
// button and remote calls, reports the door reed switch, and publishes audit
// events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/garage-controller/internal/audit"
	"github.com/sweeney/garage-controller/internal/cloud"
	"github.com/sweeney/garage-controller/internal/controller"
	"github.com/sweeney/garage-controller/internal/gpio"
	"github.com/sweeney/garage-controller/internal/logic"
	"github.com/sweeney/garage-controller/internal/mqtt"
	"github.com/sweeney/garage-controller/internal/status"
	"github.com/sweeney/garage-controller/internal/web"
)

// envBroker overrides the default -broker value.
const envBroker = "GARAGE_MQTT_BROKER"

// GPIO backends selectable with -gpio.
const (
	backendGPIOCDev = "gpiocdev"
	backendPeriph   = "periph"
)

type config struct {
	poll       time.Duration
	heartbeat  time.Duration
	broker     string
	prefix     string
	clientID   string
	httpAddr   string
	backend    string
	pins       gpio.Config
	printState bool
	debug      bool
}

func main() {
	var cfg config
	cfg.pins = gpio.DefaultConfig()

	flag.DurationVar(&cfg.poll, "poll", 10*time.Millisecond, "Control loop tick interval")
	flag.StringVar(&cfg.broker, "broker", environOrDefault(envBroker, "tcp://192.168.1.200:1883"), "MQTT broker address (env "+envBroker+")")
	flag.StringVar(&cfg.prefix, "topic-prefix", mqtt.DefaultPrefix, "MQTT topic prefix")
	flag.StringVar(&cfg.clientID, "client-id", "garage-controller", "MQTT client ID")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.backend, "gpio", backendGPIOCDev, "GPIO backend: gpiocdev or periph")
	flag.StringVar(&cfg.pins.Chip, "chip", gpio.DefaultChip, "GPIO chip (gpiocdev backend)")
	flag.IntVar(&cfg.pins.Relay, "pin-relay", gpio.DefaultPinRelay, "BCM pin number for the relay")
	flag.IntVar(&cfg.pins.Door, "pin-door", gpio.DefaultPinDoor, "BCM pin number for the door reed switch")
	flag.IntVar(&cfg.pins.Button, "pin-button", gpio.DefaultPinButton, "BCM pin number for the push button")
	flag.IntVar(&cfg.pins.LED, "pin-led", gpio.DefaultPinLED, "BCM pin number for the status LED")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print current inputs and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	pins, err := openPins(cfg.backend, cfg.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	if cfg.printState {
		defer pins.Close()
		return printState(os.Stdout, pins)
	}

	debug := log.New(io.Discard, "debug: ", log.LstdFlags|log.Lmicroseconds)
	if cfg.debug {
		debug.SetOutput(os.Stderr)
	}

	bus := audit.New(audit.DefaultCapacity)
	mailbox := cloud.NewMailbox(cloud.DefaultMailboxSize)
	calls := &mqttCalls{mailbox: mailbox}

	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.broker,
		ClientID: cfg.clientID,
		Prefix:   cfg.prefix,
		OnCall:   calls.handle,
	})
	defer publisher.Close()

	ctrl := controller.New(pins, bus, controller.Options{Debug: debug})
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Printf("gpio close: %v", err)
		}
	}()

	registry := cloud.NewRegistry()
	ctrl.Register(registry)
	log.Printf("cloud: functions %v", registry.Functions())

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		TopicPrefix: cfg.prefix,
		HTTPAddr:    cfg.httpAddr,
		GPIO:        cfg.backend,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	d := &daemon{
		ctrl:       ctrl,
		registry:   registry,
		mailbox:    mailbox,
		calls:      calls,
		bus:        bus,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		heartbeat:  cfg.heartbeat,
	}

	// Publish startup event with full status snapshot
	d.refresh()
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, mailbox)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: poll=%v broker=%s prefix=%s heartbeat=%v gpio=%s",
		cfg.poll, cfg.broker, cfg.prefix, cfg.heartbeat, cfg.backend)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

func openPins(backend string, cfg gpio.Config) (gpio.Pins, error) {
	switch backend {
	case backendGPIOCDev:
		pins, err := gpio.NewRealPins(cfg)
		if err != nil {
			return nil, err
		}
		return pins, nil
	case backendPeriph:
		pins, err := gpio.NewPeriphPins(cfg)
		if err != nil {
			return nil, err
		}
		return pins, nil
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}

func printState(w io.Writer, pins gpio.Pins) error {
	door, err := pins.ReadDoor()
	if err != nil {
		return fmt.Errorf("read door: %w", err)
	}
	pressed, err := pins.ReadButton()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	fmt.Fprintf(w, "door: %s, button: %s\n", doorString(door), buttonString(pressed))
	return nil
}

// doorString names a raw reed switch level; HIGH is closed.
func doorString(high bool) string {
	if high {
		return "CLOSED"
	}
	return "OPEN"
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

// mqttCalls queues function calls received over MQTT. Replies run on the
// loop goroutine while the mailbox is drained, and the results are kept
// there until the loop publishes them.
type mqttCalls struct {
	mailbox *cloud.Mailbox
	results []mqtt.CallResult
}

func (m *mqttCalls) handle(function, command string) {
	err := m.mailbox.Post(cloud.Request{
		Function: function,
		Command:  command,
		Reply: func(result int, err error) {
			r := mqtt.CallResult{Function: function, Command: command, Result: result}
			if err != nil {
				r.Error = err.Error()
			}
			m.results = append(m.results, r)
		},
	})
	if err != nil {
		log.Printf("mqtt: dropping %s(%q): %v", function, command, err)
	}
}

func (m *mqttCalls) take() []mqtt.CallResult {
	r := m.results
	m.results = nil
	return r
}

// daemon holds everything the loop goroutine owns.
type daemon struct {
	ctrl       *controller.Controller
	registry   *cloud.Registry
	mailbox    *cloud.Mailbox
	calls      *mqttCalls
	bus        *audit.Bus
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration

	// vars holds the variable values last published.
	vars map[string]int
}

func runLoop(d *daemon, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	stopForwarders := d.startForwarders()
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// Flush queued audit events before the final status.
			stopForwarders()

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			d.refresh()
			snap := d.tracker.Snapshot()
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			d.ctrl.Tick(t)
			d.refresh()

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				d.sendHeartbeat(t)
			}

		case <-d.mailbox.Ready():
			if n := d.mailbox.Drain(d.registry); n > 0 {
				d.publishResults()
				d.refresh()
			}
		}
	}
}

// startForwarders subscribes the MQTT publisher and the tracker's recent
// list to the audit bus. The returned function shuts the bus down and waits
// for both forwarders to deliver everything already published.
func (d *daemon) startForwarders() func() {
	events := d.bus.Subscribe()
	recent := d.bus.Subscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		audit.Forward(events, func(e logic.Event) {
			log.Printf("event: %s", e)
			if err := d.publisher.Publish(e); err != nil {
				log.Printf("publish error: %v", err)
			}
		})
	}()
	go func() {
		defer wg.Done()
		audit.Forward(recent, d.tracker.RecordEvent)
	}()

	return func() {
		d.bus.Shutdown()
		wg.Wait()
	}
}

// refresh copies the controller state into the tracker and publishes the
// variables that changed since the last refresh.
func (d *daemon) refresh() {
	vars := d.registry.Variables()
	d.tracker.Update(status.Device{
		Relay:     d.ctrl.RelayState(),
		Door:      d.ctrl.DoorState(),
		Effect:    d.ctrl.Effect(),
		LEDCycle:  d.ctrl.LEDCycle(),
		LEDLevel:  d.ctrl.LEDLevel(),
		Indicator: d.ctrl.Color(),
		Counts:    d.ctrl.Counts(),
		Variables: vars,
	})
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if old, ok := d.vars[name]; ok && old == vars[name] {
			continue
		}
		if err := d.publisher.PublishVariable(name, vars[name]); err != nil {
			log.Printf("variable publish error: %v", err)
		}
	}
	d.vars = vars
}

func (d *daemon) publishResults() {
	for _, r := range d.calls.take() {
		log.Printf("call: %s(%q) = %d", r.Function, r.Command, r.Result)
		if err := d.publisher.PublishResult(r); err != nil {
			log.Printf("result publish error: %v", err)
		}
	}
}

func (d *daemon) sendHeartbeat(t time.Time) {
	counts := d.ctrl.Counts()
	log.Printf("heartbeat: relay=%s door=%s remote=%d local=%d door_open=%d door_closed=%d pending_calls=%d",
		d.ctrl.RelayState(), d.ctrl.DoorState(),
		counts.RemoteActuation+counts.RemoteActuationDelay,
		counts.LocalActuation+counts.LocalActuationDelay,
		counts.DoorOpen, counts.DoorClosed, d.mailbox.Len())

	// Refresh network info for heartbeat
	if net := readNetworkInfo(); net != nil {
		d.tracker.SetNetwork(net)
	}
	snap := d.tracker.Snapshot()
	hbEvent := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := d.publisher.PublishSystem(hbEvent); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// environOrDefault returns the environment variable name, or def if it is
// unset or empty.
func environOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
