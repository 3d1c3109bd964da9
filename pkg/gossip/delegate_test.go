package gossip

import (
	"net"
	"strings"
	"testing"
	"time"

	leg_metrics "github.com/armon/go-metrics"
	"github.com/hashicorp/go-metrics"
	"github.com/hashicorp/memberlist"
	"github.com/raskyld/zbytes"
	"github.com/raskyld/zbytes/pkg/flow"
	"github.com/raskyld/zbytes/pkg/telemetry"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// nodeMeta is what every test node advertises: its role and flow port.
type nodeMeta = zbytes.Pair[string, uint16]

var metaCodec = zbytes.PairOf(zbytes.String, zbytes.Uint16)

type mockSink struct {
	metrics.BlackholeSink
	mock.Mock
}

func (m *mockSink) IncrCounterWithLabels(key []string, val float32, labels []metrics.Label) {
	m.Called(strings.Join(key, "."), val)
}

func newDelegate(t *testing.T, local nodeMeta, opts ...Option) *Delegate[nodeMeta, flow.Sample] {
	t.Helper()
	d, err := New(metaCodec, flow.SampleCodec, local, opts...)
	require.NoError(t, err)
	return d
}

func nodeWith(t *testing.T, name string, meta nodeMeta) *memberlist.Node {
	t.Helper()
	return &memberlist.Node{
		Name: name,
		Addr: net.IP{127, 0, 0, 1},
		Port: 7946,
		Meta: zbytes.MustSerialize(metaCodec, meta).ToSlice(),
	}
}

func TestDelegate_NodeMeta(t *testing.T) {
	local := zbytes.NewPair("publisher", uint16(4242))
	d := newDelegate(t, local)

	t.Run("encodes the local metadata", func(t *testing.T) {
		buf := d.NodeMeta(memberlist.MetaMaxSize)
		require.Equal(t, zbytes.MustSerialize(metaCodec, local).ToSlice(), buf)
	})

	t.Run("advertises nothing over the limit", func(t *testing.T) {
		require.Nil(t, d.NodeMeta(4))
	})

	t.Run("follows SetLocal", func(t *testing.T) {
		d.SetLocal(zbytes.NewPair("subscriber", uint16(1)))
		decoded, err := zbytes.Deserialize(metaCodec, zbytes.Of(d.NodeMeta(memberlist.MetaMaxSize)))
		require.NoError(t, err)
		require.Equal(t, "subscriber", decoded.First)
	})
}

func TestDelegate_Membership(t *testing.T) {
	sink := &mockSink{}
	sink.On("IncrCounterWithLabels", "zbytes.gossip.decode.error.count", float32(1)).Once()

	d := newDelegate(t, zbytes.NewPair("local", uint16(1)), WithMetricSink(sink))

	d.NotifyJoin(nodeWith(t, "a", zbytes.NewPair("publisher", uint16(10))))
	d.NotifyJoin(nodeWith(t, "b", zbytes.NewPair("subscriber", uint16(11))))

	meta, ok := d.Peer("a")
	require.True(t, ok)
	require.Equal(t, zbytes.NewPair("publisher", uint16(10)), meta)
	require.Len(t, d.Peers(), 2)

	d.NotifyUpdate(nodeWith(t, "a", zbytes.NewPair("router", uint16(12))))
	meta, _ = d.Peer("a")
	require.Equal(t, "router", meta.First)

	d.NotifyLeave(&memberlist.Node{Name: "b"})
	_, ok = d.Peer("b")
	require.False(t, ok)

	d.NotifyJoin(&memberlist.Node{Name: "broken", Meta: []byte{1, 2}})
	_, ok = d.Peer("broken")
	require.False(t, ok)

	sink.AssertExpectations(t)
}

func TestDelegate_Messages(t *testing.T) {
	sink := &mockSink{}
	sink.On("IncrCounterWithLabels", "zbytes.gossip.broadcast.count", float32(1)).Once()
	sink.On("IncrCounterWithLabels", "zbytes.gossip.msg.in.count", float32(1)).Once()
	sink.On("IncrCounterWithLabels", "zbytes.gossip.decode.error.count", float32(1)).Once()
	sink.On("IncrCounterWithLabels", "zbytes.gossip.msg.dropped.count", float32(1)).Once()

	d := newDelegate(t, zbytes.NewPair("local", uint16(1)), WithInboxSize(1), WithMetricSink(sink))

	sample, err := flow.NewSample("demo/gossip",
		zbytes.Int64, 7,
		zbytes.List(zbytes.String), []string{"hello"},
	)
	require.NoError(t, err)

	require.NoError(t, d.Broadcast(sample))
	require.Equal(t, 1, d.NumQueued())

	broadcasts := d.GetBroadcasts(2, 1400)
	require.Len(t, broadcasts, 1)
	require.Equal(t, zbytes.MustSerialize(flow.SampleCodec, sample).ToSlice(), broadcasts[0])

	// Deliver it back as if a peer had gossiped it.
	d.NotifyMsg(broadcasts[0])
	d.NotifyMsg([]byte("garbage"))
	d.NotifyMsg(broadcasts[0])

	select {
	case got := <-d.Messages():
		require.Equal(t, sample, got)
	default:
		t.Fatal("no message delivered")
	}
	select {
	case <-d.Messages():
		t.Fatal("a full inbox must drop messages")
	default:
	}

	sink.AssertExpectations(t)
}

func TestDelegate_PushPull(t *testing.T) {
	remote := newDelegate(t, zbytes.NewPair("remote", uint16(1)))
	remote.NotifyJoin(nodeWith(t, "a", zbytes.NewPair("publisher", uint16(10))))
	remote.NotifyJoin(nodeWith(t, "b", zbytes.NewPair("subscriber", uint16(11))))

	local := newDelegate(t, zbytes.NewPair("local", uint16(2)))
	local.NotifyJoin(nodeWith(t, "a", zbytes.NewPair("router", uint16(20))))

	state := remote.LocalState(true)
	decoded, err := zbytes.Deserialize(zbytes.Map(zbytes.String, metaCodec), zbytes.Of(state))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	local.MergeRemoteState(state, true)
	require.Equal(t, map[string]nodeMeta{
		"a": zbytes.NewPair("router", uint16(20)),
		"b": zbytes.NewPair("subscriber", uint16(11)),
	}, local.Peers())

	t.Run("undecodable state is ignored", func(t *testing.T) {
		local.MergeRemoteState([]byte{9, 0, 0, 0, 'x'}, false)
		require.Len(t, local.Peers(), 2)
	})
}

func TestNew_Options(t *testing.T) {
	labels := []metrics.Label{telemetry.LabelFlow.M("gossip")}
	d := newDelegate(t, zbytes.NewPair("local", uint16(1)),
		WithHostname("node-a"),
		WithListenOn("127.0.0.1", 7000),
		WithMetricLabels(labels),
		WithRetransmitMult(2),
	)

	cfg := d.MemberlistConfig()
	require.Equal(t, "node-a", cfg.Name)
	require.Equal(t, "127.0.0.1", cfg.BindAddr)
	require.Equal(t, 7000, cfg.BindPort)
	require.Equal(t, []leg_metrics.Label{{Name: "flow", Value: "gossip"}}, cfg.MetricLabels)
	require.NotNil(t, cfg.Logger)
	require.Nil(t, cfg.LogOutput)
	require.Same(t, d, cfg.Delegate)
	require.Same(t, d, cfg.Events)

	_, err := New(metaCodec, flow.SampleCodec, zbytes.NewPair("x", uint16(0)), WithInboxSize(-1))
	require.ErrorIs(t, err, ErrInvalidCfg)

	_, err = New(metaCodec, flow.SampleCodec, zbytes.NewPair("x", uint16(0)), WithRetransmitMult(0))
	require.ErrorIs(t, err, ErrInvalidCfg)
}

func TestDelegate_Cluster(t *testing.T) {
	if testing.Short() {
		t.Skip("starts two memberlist nodes on the loopback interface")
	}

	fast := func(c *memberlist.Config) {
		local := memberlist.DefaultLocalConfig()
		c.GossipInterval = local.GossipInterval
		c.ProbeInterval = local.ProbeInterval
		c.ProbeTimeout = local.ProbeTimeout
		c.PushPullInterval = local.PushPullInterval
		c.TCPTimeout = local.TCPTimeout
	}

	start := func(name, role string) (*Delegate[nodeMeta, flow.Sample], *memberlist.Memberlist) {
		d := newDelegate(t, zbytes.NewPair(role, uint16(0)),
			WithHostname(name),
			WithListenOn("127.0.0.1", 0),
			WithMemberlistConfig(fast),
		)
		list, err := d.Create()
		require.NoError(t, err)
		t.Cleanup(func() { _ = list.Shutdown() })
		return d, list
	}

	pub, pubList := start("node-pub", "publisher")
	sub, subList := start("node-sub", "subscriber")

	_, err := subList.Join([]string{pubList.LocalNode().Address()})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		meta, ok := sub.Peer("node-pub")
		return ok && meta.First == "publisher"
	}, 5*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		meta, ok := pub.Peer("node-sub")
		return ok && meta.First == "subscriber"
	}, 5*time.Second, 50*time.Millisecond)

	sample, err := flow.NewSample("demo/cluster",
		zbytes.String, "hello",
		zbytes.Raw, []byte{},
	)
	require.NoError(t, err)
	require.NoError(t, pub.Broadcast(sample))

	select {
	case got := <-sub.Messages():
		require.Equal(t, sample, got)
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast not delivered")
	}
}
