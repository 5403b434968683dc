package dataplane

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"k8s.io/klog/v2"

	"github.com/k8snetworkplumbingwg/flowpipe/pkg/nic"
)

const (
	// DefaultBurstSize is the maximum number of packets pulled from a queue at once
	DefaultBurstSize = 32
)

// Config is the configuration of the dataplane Loop
type Config struct {
	// Ports are the ports polled by the loop
	Ports []uint16
	// StdQueues is the number of standard queues polled on every port, hairpin queues are never polled
	StdQueues uint16
	// BurstSize is the maximum number of packets received per queue per pass
	BurstSize int
	// Retransmit sends received packets back on the queue they arrived on, otherwise they are freed
	Retransmit bool
	// IdleSleep is the sleep between passes over all queues, zero busy polls
	IdleSleep time.Duration
}

// Stats are the packet counters of the dataplane Loop
type Stats struct {
	Received    uint64
	Transmitted uint64
	Freed       uint64
}

// NewLoop creates a new Loop
func NewLoop(queueAPI nic.QueueAPI, cfg Config, log klog.Logger) *Loop {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	return &Loop{queueAPI: queueAPI, cfg: cfg, log: log}
}

// Loop drains the standard receive queues of the traffic hardware left for software
type Loop struct {
	queueAPI nic.QueueAPI
	cfg      Config
	log      klog.Logger

	received    atomic.Uint64
	transmitted atomic.Uint64
	freed       atomic.Uint64
}

// Run polls all standard queues of all ports until ctx is done
func (l *Loop) Run(ctx context.Context) {
	l.log.Info("dataplane loop started", "ports", l.cfg.Ports, "queues", l.cfg.StdQueues,
		"retransmit", l.cfg.Retransmit)
	for {
		select {
		case <-ctx.Done():
			s := l.Stats()
			l.log.Info("dataplane loop stopped", "received", s.Received, "transmitted", s.Transmitted,
				"freed", s.Freed)
			return
		default:
		}

		l.Poll()

		if l.cfg.IdleSleep > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(l.cfg.IdleSleep):
			}
		}
	}
}

// Poll makes a single pass over all standard queues of all ports, returns the number of packets received
func (l *Loop) Poll() int {
	total := 0
	for _, port := range l.cfg.Ports {
		for q := uint16(0); q < l.cfg.StdQueues; q++ {
			total += l.pollQueue(port, q)
		}
	}
	return total
}

func (l *Loop) pollQueue(port, queue uint16) int {
	pkts := l.queueAPI.RxBurst(port, queue, l.cfg.BurstSize)
	if len(pkts) == 0 {
		return 0
	}
	l.received.Add(uint64(len(pkts)))

	if l.log.V(5).Enabled() {
		for _, pkt := range pkts {
			l.logPacket(port, queue, pkt)
		}
	}

	sent := 0
	if l.cfg.Retransmit {
		sent = l.queueAPI.TxBurst(port, queue, pkts)
		if sent < 0 {
			sent = 0
		} else if sent > len(pkts) {
			sent = len(pkts)
		}
		l.transmitted.Add(uint64(sent))
	}

	// buffers not accepted by tx are still ours
	for _, pkt := range pkts[sent:] {
		l.queueAPI.Free(pkt)
	}
	if unsent := len(pkts) - sent; unsent > 0 {
		l.freed.Add(uint64(unsent))
		if l.cfg.Retransmit {
			l.log.V(4).Info("tx burst short", "port", port, "queue", queue, "received", len(pkts), "sent", sent)
		}
	}
	return len(pkts)
}

// logPacket dumps the addresses and hardware classification metadata of a packet
func (l *Loop) logPacket(port, queue uint16, pkt *nic.Packet) {
	src, dst := Addresses(pkt.Data)
	kv := []interface{}{"port", port, "queue", queue, "src", src, "dst", dst}
	if pkt.OlFlags.Has(nic.OlFlagRSSHash) {
		kv = append(kv, "rss-hash", pkt.RSSHash)
	}
	if pkt.OlFlags.Has(nic.OlFlagFDIR) {
		switch {
		case pkt.OlFlags.Has(nic.OlFlagFDIRID):
			kv = append(kv, "fdir-id", pkt.FDIR.Hi)
		case pkt.OlFlags.Has(nic.OlFlagFDIRFlex):
			kv = append(kv, "fdir-flex-hi", pkt.FDIR.Hi, "fdir-flex-lo", pkt.FDIR.Lo)
		default:
			kv = append(kv, "fdir-hash", pkt.FDIR.Hash, "fdir-id", pkt.FDIR.ID)
		}
	}
	if pkt.OlFlags.Has(nic.OlFlagMark) {
		kv = append(kv, "mark", pkt.Mark)
	}
	l.log.V(5).Info("received packet", kv...)
}

// Addresses returns the source and destination MAC addresses of an ethernet frame,
// empty strings if data is not an ethernet frame
func Addresses(data []byte) (src, dst string) {
	p := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	eth, ok := p.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok || len(eth.SrcMAC) != 6 || len(eth.DstMAC) != 6 {
		return "", ""
	}
	return eth.SrcMAC.String(), eth.DstMAC.String()
}

// Stats returns a snapshot of the loop counters
func (l *Loop) Stats() Stats {
	return Stats{
		Received:    l.received.Load(),
		Transmitted: l.transmitted.Load(),
		Freed:       l.freed.Load(),
	}
}
