// Package telemetry holds the metric keys and label helpers shared by the
// packages carrying zbytes payloads.
package telemetry

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	// MetricFlowFramesOut counts frames written to a flow.
	MetricFlowFramesOut       = []string{"zbytes", "flow", "frames", "out", "count"}
	MetricFlowBytesOut        = []string{"zbytes", "flow", "out", "bytes"}
	MetricFlowFramesIn        = []string{"zbytes", "flow", "frames", "in", "count"}
	MetricFlowBytesIn         = []string{"zbytes", "flow", "in", "bytes"}
	MetricFlowEncodeErrors    = []string{"zbytes", "flow", "encode", "error", "count"}
	MetricFlowDecodeErrors    = []string{"zbytes", "flow", "decode", "error", "count"}
	MetricFlowTypeMismatches  = []string{"zbytes", "flow", "type", "mismatch", "count"}
	MetricGossipMetaBytes     = []string{"zbytes", "gossip", "meta", "bytes"}
	MetricGossipMetaTooLarge  = []string{"zbytes", "gossip", "meta", "too", "large", "count"}
	MetricGossipMsgIn         = []string{"zbytes", "gossip", "msg", "in", "count"}
	MetricGossipMsgDropped    = []string{"zbytes", "gossip", "msg", "dropped", "count"}
	MetricGossipBroadcasts    = []string{"zbytes", "gossip", "broadcast", "count"}
	MetricGossipDecodeErrors  = []string{"zbytes", "gossip", "decode", "error", "count"}
	MetricGossipPeers         = []string{"zbytes", "gossip", "peers"}
	MetricGossipStateMerges   = []string{"zbytes", "gossip", "state", "merge", "count"}
	MetricGossipStateOutBytes = []string{"zbytes", "gossip", "state", "out", "bytes"}
)

type TelemetryLabel string

var (
	LabelError     TelemetryLabel = "error"
	LabelType      TelemetryLabel = "type"
	LabelPeerName  TelemetryLabel = "peer_name"
	LabelPeerAddr  TelemetryLabel = "peer_addr"
	LabelFlow      TelemetryLabel = "flow"
	LabelKeyExpr   TelemetryLabel = "key_expr"
	LabelSize      TelemetryLabel = "size"
	LabelLimit     TelemetryLabel = "limit"
	LabelPayload   TelemetryLabel = "payload"
	LabelDirection TelemetryLabel = "direction"
)

// M returns the label as a metric label.
func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

// L returns the label as a structured log attribute.
func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}

// With appends extra labels to a static set without aliasing it.
func With(static []metrics.Label, extra ...metrics.Label) []metrics.Label {
	out := make([]metrics.Label, 0, len(static)+len(extra))
	out = append(out, static...)
	return append(out, extra...)
}
