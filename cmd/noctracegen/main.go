// noctracegen turns a small declarative YAML scenario file into an
// ndjson injection trace that nocsimd's -seed flag (or nocctl node
// inject) can replay: one line per msg.NetPacket, in the order the
// scenario lists its events.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/trace"
	appversion "github.com/dantte-lp/nocrouter/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	scenarioPath := flag.String("scenario", "", "path to a YAML scenario file")
	outPath := flag.String("out", "", "path to write the ndjson trace (default: stdout)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appversion.Full("noctracegen"))
		return 0
	}

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "noctracegen: -scenario is required")
		return 1
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "noctracegen:", err)
		return 1
	}

	packets, err := scenario.packets()
	if err != nil {
		fmt.Fprintln(os.Stderr, "noctracegen:", err)
		return 1
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "noctracegen:", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	w := trace.NewFileWriter(out)
	for _, pkt := range packets {
		if err := w.Write(pkt); err != nil {
			fmt.Fprintln(os.Stderr, "noctracegen: write packet:", err)
			return 1
		}
	}

	return 0
}

// scenario is the declarative YAML shape noctracegen reads: a flat list
// of events, each generating one injected packet. It intentionally
// covers only the credit and on/off buffer-management shapes a
// test harness needs to drive a topology from the outside -- anything
// requiring in-flight flow-control state (a flit mid-route) has to come
// from the engine itself, not a seed trace.
type scenario struct {
	Events []scenarioEvent `yaml:"events"`
}

type scenarioEvent struct {
	Time       uint64 `yaml:"time"`
	Sender     string `yaml:"sender"`
	Receiver   string `yaml:"receiver"`
	Channel    int    `yaml:"channel"`
	Kind       string `yaml:"kind"` // "credit" or "on_off"
	NumCredits uint32 `yaml:"num_credits"`
	OnOff      bool   `yaml:"on_off"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *scenario) packets() ([]msg.NetPacket, error) {
	out := make([]msg.NetPacket, 0, len(s.Events))

	for i, ev := range s.Events {
		sender, err := endpoint.ParseRouterID(ev.Sender)
		if err != nil {
			return nil, fmt.Errorf("event %d: parse sender %q: %w", i, ev.Sender, err)
		}
		receiver, err := endpoint.ParseRouterID(ev.Receiver)
		if err != nil {
			return nil, fmt.Errorf("event %d: parse receiver %q: %w", i, ev.Receiver, err)
		}

		ep := endpoint.Specific(ev.Channel, 0)

		var bm msg.BufferMgmtMsg
		switch ev.Kind {
		case "credit":
			bm = msg.Credit(ev.NumCredits, ev.Time, ep)
		case "on_off":
			bm = msg.OnOff(ev.OnOff, ev.Time, ep)
		default:
			return nil, fmt.Errorf("event %d: unknown kind %q, want credit or on_off", i, ev.Kind)
		}

		out = append(out, msg.NetPacket{
			Time:     ev.Time,
			Sender:   sender,
			Receiver: receiver,
			Data: msg.Payload{
				Kind:       msg.PayloadBufferMgmt,
				BufferMgmt: bm,
			},
		})
	}

	return out, nil
}
