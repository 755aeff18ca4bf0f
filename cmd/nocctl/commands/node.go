package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

var errReceiverRequired = errors.New("--receiver flag is required")

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Inspect and drive routers in a running simulation",
	}

	cmd.AddCommand(nodeListCmd())
	cmd.AddCommand(nodeShowCmd())
	cmd.AddCommand(nodeInjectCmd())
	cmd.AddCommand(nodeInjectCreditCmd())

	return cmd
}

// --- node list ---

func nodeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every router known to the daemon",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			nodes, err := client.ListNodes(context.Background())
			if err != nil {
				return fmt.Errorf("list nodes: %w", err)
			}

			out, err := formatNodeList(nodes, outputFormat)
			if err != nil {
				return fmt.Errorf("format nodes: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- node show ---

func nodeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <core/index>",
		Short: "Show a router's per-channel buffer occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := endpoint.ParseRouterID(args[0])
			if err != nil {
				return fmt.Errorf("parse router id %q: %w", args[0], err)
			}

			status, err := client.NodeStatus(context.Background(), id)
			if err != nil {
				return fmt.Errorf("node status: %w", err)
			}

			out, err := formatNodeDetail(status, outputFormat)
			if err != nil {
				return fmt.Errorf("format node status: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- node inject ---

// nodeInjectCmd injects a fully-formed packet read as JSON, either from a
// file or from stdin with "-". This is the general escape hatch for
// anything a convenience subcommand doesn't cover: the wire shape is
// exactly msg.NetPacket, the same shape a trace file's ndjson lines use.
func nodeInjectCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject a raw packet (JSON-encoded msg.NetPacket) into the simulation",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var r *os.File
			switch file {
			case "", "-":
				r = os.Stdin
			default:
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer f.Close()
				r = f
			}

			var pkt msg.NetPacket
			if err := json.NewDecoder(r).Decode(&pkt); err != nil {
				return fmt.Errorf("decode packet: %w", err)
			}

			result, err := client.Inject(context.Background(), pkt)
			if err != nil {
				return fmt.Errorf("inject: %w", err)
			}

			out, err := formatInjectResult(result, outputFormat)
			if err != nil {
				return fmt.Errorf("format inject result: %w", err)
			}

			fmt.Println(out)

			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", "JSON packet file, or - for stdin")

	return cmd
}

// --- node inject-credit ---

// nodeInjectCreditCmd is a convenience wrapper around node inject for the
// common case of granting credits back to a neighbor without hand-writing
// JSON.
func nodeInjectCreditCmd() *cobra.Command {
	var (
		sender   string
		receiver string
		channel  int
		credits  uint32
	)

	cmd := &cobra.Command{
		Use:   "inject-credit",
		Short: "Grant credits to a router on one of its input channels",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if receiver == "" {
				return errReceiverRequired
			}

			recvID, err := endpoint.ParseRouterID(receiver)
			if err != nil {
				return fmt.Errorf("parse --receiver %q: %w", receiver, err)
			}

			var sendID endpoint.RouterID
			if sender != "" {
				sendID, err = endpoint.ParseRouterID(sender)
				if err != nil {
					return fmt.Errorf("parse --sender %q: %w", sender, err)
				}
			}

			pkt := msg.NetPacket{
				Sender:   sendID,
				Receiver: recvID,
				Data: msg.Payload{
					Kind: msg.PayloadBufferMgmt,
					BufferMgmt: msg.BufferMgmtMsg{
						Kind:       msg.KindCredit,
						NumCredits: credits,
						Endpoint:   endpoint.Specific(channel, 0),
					},
				},
			}

			result, err := client.Inject(context.Background(), pkt)
			if err != nil {
				return fmt.Errorf("inject: %w", err)
			}

			out, err := formatInjectResult(result, outputFormat)
			if err != nil {
				return fmt.Errorf("format inject result: %w", err)
			}

			fmt.Println(out)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sender, "sender", "", "sending router id (core/index)")
	flags.StringVar(&receiver, "receiver", "", "receiving router id (core/index, required)")
	flags.IntVar(&channel, "channel", 0, "input channel number")
	flags.Uint32Var(&credits, "credits", 1, "number of credits to grant")

	return cmd
}
