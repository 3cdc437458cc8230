package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Command   string      `json:"command"`
	Node      *NodeStatus `json:"node,omitempty"`
	Cache     CacheStatus `json:"cache"`
}

// NodeStatus describes the RPC round trip made by a command, if any.
type NodeStatus struct {
	Address   string `json:"address"`
	Method    string `json:"method"`
	RPCID     string `json:"rpc_id"`
	LatencyMS int64  `json:"latency_ms"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
}

// LocalWrite is the result of writing an artifact to a file.
type LocalWrite struct {
	Kind    string `json:"kind"`
	Hash    string `json:"hash"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Signed  bool   `json:"signed"`
}

// KeyFiles is the result of keygen.
type KeyFiles struct {
	Algorithm string   `json:"algorithm"`
	PublicKey string   `json:"public_key"`
	Account   string   `json:"account_hash"`
	Files     []string `json:"files"`
}

type VersionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}
