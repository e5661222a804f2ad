// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// Copyright 2026-present Sennet Authors.

package kernelabi

// dropReasonNames maps the kernel's SKB_DROP_REASON_* enum (values 1..44)
// to a human-readable name. Reason 0 means "reason unavailable on this
// kernel" (kernels older than 5.17 don't expose the field) and reason 1
// is the generic "not specified" value that the probe never forwards.
// Values outside this table, including any not yet assigned by newer
// kernels, report as UNKNOWN.
var dropReasonNames = map[uint32]string{
	1:  "NOT_SPECIFIED",
	2:  "NO_SOCKET",
	3:  "PKT_TOO_SMALL",
	4:  "TCP_CSUM",
	5:  "SOCKET_FILTER",
	6:  "UDP_CSUM",
	7:  "NETFILTER_DROP",
	8:  "OTHERHOST",
	9:  "IP_CSUM",
	10: "IP_INHDR",
	11: "IP_RPFILTER",
	12: "UNICAST_IN_L2_MULTICAST",
	13: "XFRM_POLICY",
	14: "IP_NOPROTO",
	15: "SOCKET_RCVBUFF",
	16: "PROTO_MEM",
	17: "TCP_MD5NOTFOUND",
	18: "TCP_MD5UNEXPECTED",
	19: "TCP_MD5FAILURE",
	20: "SOCKET_BACKLOG",
	21: "TCP_FLAGS",
	22: "TCP_ZEROWINDOW",
	23: "TCP_OLD_DATA",
	24: "TCP_OVERWINDOW",
	25: "TCP_OFOMERGE",
	26: "TCP_RFC7323_PAWS",
	27: "TCP_OLD_ACK",
	28: "TCP_TOO_OLD_ACK",
	29: "TCP_ACK_UNSENT_DATA",
	30: "TCP_OFO_QUEUE_PRUNE",
	31: "TCP_OFO_DROP",
	32: "IP_OUTNOROUTES",
	33: "BPF_CGROUP_EGRESS",
	34: "IPV6DISABLED",
	35: "NEIGH_CREATEFAIL",
	36: "NEIGH_FAILED",
	37: "NEIGH_QUEUEFULL",
	38: "NEIGH_DEAD",
	39: "TC_EGRESS",
	40: "QDISC_DROP",
	41: "CPU_BACKLOG",
	42: "XDP",
	43: "TC_INGRESS",
	44: "UNHANDLED_PROTO",
}

// DropReasonString resolves a kernel drop-reason code to its name.
// Code 0 reports as REASON_UNAVAILABLE; other unmapped codes report as
// UNKNOWN.
func DropReasonString(reason uint32) string {
	if reason == 0 {
		return "REASON_UNAVAILABLE"
	}
	if name, ok := dropReasonNames[reason]; ok {
		return name
	}
	return "UNKNOWN"
}
