// Package gossip exchanges zbytes payloads over a memberlist cluster.
//
// ## How it works
//
// A [Delegate] plugs into memberlist as both its `Delegate` and its
// `EventDelegate`. Every node advertises a metadata value of type M,
// encoded with a zbytes codec, and peers keep a directory of the decoded
// metadata of every member. User messages of type Msg are broadcast with
// memberlist's transmit-limited queue and delivered on a channel.
//
// During push/pull synchronisation, nodes also exchange their whole
// directory encoded as `map<string,M>`, so late joiners learn about peers
// whose metadata they have not seen yet.
//
// Peers' payloads are untrusted: anything that does not decode is logged,
// counted and dropped, never propagated.
package gossip

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/hashicorp/go-metrics"
	"github.com/hashicorp/memberlist"
	"github.com/raskyld/zbytes"
	"github.com/raskyld/zbytes/pkg/telemetry"
)

const (
	defaultInboxSize      = 256
	defaultRetransmitMult = 4
)

// Delegate carries typed metadata and messages for memberlist.
type Delegate[M, Msg any] struct {
	cfg    config
	logger *slog.Logger

	metaCodec  zbytes.Codec[M]
	msgCodec   zbytes.Codec[Msg]
	stateCodec zbytes.Codec[map[string]M]

	lk    sync.RWMutex
	local M
	peers map[string]M

	inbox chan Msg
	queue *memberlist.TransmitLimitedQueue
}

var (
	_ memberlist.Delegate      = (*Delegate[int32, string])(nil)
	_ memberlist.EventDelegate = (*Delegate[int32, string])(nil)
)

// New creates a Delegate advertising local as this node's metadata.
func New[M, Msg any](metaCodec zbytes.Codec[M], msgCodec zbytes.Codec[Msg], local M, opts ...Option) (*Delegate[M, Msg], error) {
	d := &Delegate[M, Msg]{
		metaCodec:  metaCodec,
		msgCodec:   msgCodec,
		stateCodec: zbytes.Map(zbytes.String, metaCodec),
		local:      local,
		peers:      make(map[string]M),
	}

	d.cfg.mlCfg = memberlist.DefaultLANConfig()
	d.cfg.mlCfg.LogOutput = nil
	d.cfg.msink = &metrics.BlackholeSink{}
	d.cfg.inboxSize = defaultInboxSize
	d.cfg.retransmitMult = defaultRetransmitMult

	for _, opt := range opts {
		if err := opt(&d.cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	if d.cfg.logHandler != nil {
		d.logger = slog.New(d.cfg.logHandler)
		d.cfg.mlCfg.Logger = slog.NewLogLogger(d.cfg.logHandler, slog.LevelDebug)
	} else {
		d.logger = slog.Default()
		d.cfg.mlCfg.Logger = slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug)
	}
	d.cfg.mlCfg.Delegate = d
	d.cfg.mlCfg.Events = d

	d.inbox = make(chan Msg, d.cfg.inboxSize)
	d.queue = &memberlist.TransmitLimitedQueue{
		NumNodes:       d.numNodes,
		RetransmitMult: d.cfg.retransmitMult,
	}
	return d, nil
}

// MemberlistConfig returns the configuration to create the memberlist
// with. It is wired to d.
func (d *Delegate[M, Msg]) MemberlistConfig() *memberlist.Config {
	return d.cfg.mlCfg
}

// Create starts a memberlist node using d.
func (d *Delegate[M, Msg]) Create() (*memberlist.Memberlist, error) {
	return memberlist.Create(d.cfg.mlCfg)
}

func (d *Delegate[M, Msg]) numNodes() int {
	d.lk.RLock()
	defer d.lk.RUnlock()
	if len(d.peers) == 0 {
		return 1
	}
	return len(d.peers)
}

func (d *Delegate[M, Msg]) labels(extra ...metrics.Label) []metrics.Label {
	return telemetry.With(d.cfg.metricLabels, extra...)
}

// SetLocal replaces the metadata advertised by this node. Call
// `Memberlist.UpdateNode` afterwards to propagate it.
func (d *Delegate[M, Msg]) SetLocal(m M) {
	d.lk.Lock()
	defer d.lk.Unlock()
	d.local = m
}

// Peer returns the last metadata decoded for the named member.
func (d *Delegate[M, Msg]) Peer(name string) (M, bool) {
	d.lk.RLock()
	defer d.lk.RUnlock()
	m, ok := d.peers[name]
	return m, ok
}

// Peers returns a copy of the directory.
func (d *Delegate[M, Msg]) Peers() map[string]M {
	d.lk.RLock()
	defer d.lk.RUnlock()
	return maps.Clone(d.peers)
}

// Messages delivers the user messages broadcast by peers.
func (d *Delegate[M, Msg]) Messages() <-chan Msg {
	return d.inbox
}

// Broadcast queues msg to be gossiped to the cluster.
func (d *Delegate[M, Msg]) Broadcast(msg Msg) error {
	b, err := zbytes.Serialize(d.msgCodec, msg)
	if err != nil {
		return fmt.Errorf("gossip: encoding broadcast: %w", err)
	}
	d.queue.QueueBroadcast(broadcast(b.ToSlice()))
	d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipBroadcasts, 1, d.labels())
	return nil
}

// NumQueued is the number of broadcasts waiting to be sent.
func (d *Delegate[M, Msg]) NumQueued() int {
	return d.queue.NumQueued()
}

func (d *Delegate[M, Msg]) NodeMeta(limit int) []byte {
	d.lk.RLock()
	local := d.local
	d.lk.RUnlock()

	buf, err := d.metaCodec.AppendBytes(nil, local)
	if err != nil {
		d.logger.Error("failed to encode local metadata", telemetry.LabelError.L(err))
		return nil
	}
	if len(buf) > limit {
		d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipMetaTooLarge, 1, d.labels())
		d.logger.Warn(
			"local metadata does not fit, advertising none",
			telemetry.LabelSize.L(len(buf)),
			telemetry.LabelLimit.L(limit),
		)
		return nil
	}
	d.cfg.msink.SetGaugeWithLabels(telemetry.MetricGossipMetaBytes, float32(len(buf)), d.labels())
	return buf
}

func (d *Delegate[M, Msg]) NotifyMsg(buf []byte) {
	msg, err := zbytes.Deserialize(d.msgCodec, zbytes.Of(buf), zbytes.WithRegistry(d.cfg.registry))
	if err != nil {
		d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipDecodeErrors, 1, d.labels(telemetry.LabelPayload.M("msg")))
		d.logger.Warn("dropping undecodable message", telemetry.LabelError.L(err))
		return
	}

	// memberlist must not be blocked by a slow consumer.
	select {
	case d.inbox <- msg:
		d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipMsgIn, 1, d.labels())
	default:
		d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipMsgDropped, 1, d.labels())
		d.logger.Warn("inbox full, dropping message")
	}
}

func (d *Delegate[M, Msg]) GetBroadcasts(overhead, limit int) [][]byte {
	return d.queue.GetBroadcasts(overhead, limit)
}

func (d *Delegate[M, Msg]) LocalState(join bool) []byte {
	d.lk.RLock()
	state := maps.Clone(d.peers)
	d.lk.RUnlock()

	buf, err := d.stateCodec.AppendBytes(nil, state)
	if err != nil {
		d.logger.Error("failed to encode local state", telemetry.LabelError.L(err))
		return nil
	}
	d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipStateOutBytes, float32(len(buf)), d.labels())
	return buf
}

// MergeRemoteState learns the peers the remote node knows about and this
// one does not. Metadata received through membership events always wins.
func (d *Delegate[M, Msg]) MergeRemoteState(buf []byte, join bool) {
	if len(buf) == 0 {
		return
	}
	state, err := zbytes.Deserialize(d.stateCodec, zbytes.Of(buf), zbytes.WithRegistry(d.cfg.registry))
	if err != nil {
		d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipDecodeErrors, 1, d.labels(telemetry.LabelPayload.M("state")))
		d.logger.Warn("dropping undecodable remote state", telemetry.LabelError.L(err))
		return
	}

	d.lk.Lock()
	learned := 0
	for name, meta := range state {
		if _, known := d.peers[name]; !known {
			d.peers[name] = meta
			learned++
		}
	}
	size := len(d.peers)
	d.lk.Unlock()

	d.cfg.msink.IncrCounterWithLabels(telemetry.MetricGossipStateMerges, 1, d.labels())
	d.cfg.msink.SetGaugeWithLabels(telemetry.MetricGossipPeers, float32(size), d.labels())
	if learned > 0 {
		d.logger.Debug("learned peers from remote state", slog.Int("count", learned), slog.Bool("join", join))
	}
}

func (d *Delegate[M, Msg]) NotifyJoin(node *memberlist.Node) {
	if d.storeNode(node) {
		withLogNode(d.logger, node).Info("peer joined cluster")
	}
}

func (d *Delegate[M, Msg]) NotifyUpdate(node *memberlist.Node) {
	if d.storeNode(node) {
		withLogNode(d.logger, node).Info("peer updated")
	}
}

func (d *Delegate[M, Msg]) NotifyLeave(node *memberlist.Node) {
	d.lk.Lock()
	delete(d.peers, node.Name)
	size := len(d.peers)
	d.lk.Unlock()

	d.cfg.msink.SetGaugeWithLabels(telemetry.MetricGossipPeers, float32(size), d.labels())
	withLogNode(d.logger, node).Info("peer left cluster")
}

// storeNode decodes the metadata of node into the directory.
func (d *Delegate[M, Msg]) storeNode(node *memberlist.Node) bool {
	meta, err := zbytes.Deserialize(d.metaCodec, zbytes.Of(node.Meta), zbytes.WithRegistry(d.cfg.registry))
	if err != nil {
		d.cfg.msink.IncrCounterWithLabels(
			telemetry.MetricGossipDecodeErrors, 1,
			d.labels(telemetry.LabelPayload.M("meta"), telemetry.LabelPeerName.M(node.Name)),
		)
		withLogNode(d.logger, node).Warn("ignoring peer with undecodable metadata", telemetry.LabelError.L(err))
		return false
	}

	d.lk.Lock()
	d.peers[node.Name] = meta
	size := len(d.peers)
	d.lk.Unlock()

	d.cfg.msink.SetGaugeWithLabels(telemetry.MetricGossipPeers, float32(size), d.labels())
	return true
}

func withLogNode(logger *slog.Logger, node *memberlist.Node) *slog.Logger {
	return logger.With(
		telemetry.LabelPeerName.L(node.Name),
		telemetry.LabelPeerAddr.L(node.Address()),
	)
}

// broadcast is a message queued in the transmit-limited queue. Messages
// are independent: none invalidates another.
type broadcast []byte

func (b broadcast) Invalidates(memberlist.Broadcast) bool {
	return false
}

func (b broadcast) Message() []byte {
	return b
}

func (b broadcast) Finished() {}
