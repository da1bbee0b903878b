// Package wireproto defines the coordinator's gossip wire format: the
// eight PrivateSend commands as a closed set of typed payloads, built
// through constructor functions that return an error instead of ever
// panicking or unwinding partway through assembling a message.
package wireproto

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// Command is one of the eight wire-level message kinds a coordinator
// and its participants exchange.
type Command string

const (
	CmdDSA  Command = "dsa"
	CmdDSQ  Command = "dsq"
	CmdDSI  Command = "dsi"
	CmdDSF  Command = "dsf"
	CmdDSS  Command = "dss"
	CmdDSC  Command = "dsc"
	CmdDSSU Command = "dssu"
	CmdDSTX Command = "dstx"
)

// Envelope is the outer shape every gossip message carries: a command
// tag the dispatcher switches on, a request id for logging/correlation,
// and the command-specific payload as raw JSON so decoding the payload
// can fail independently of decoding the envelope.
type Envelope struct {
	RequestID string          `json:"request_id"`
	Command   Command         `json:"command"`
	Payload   json.RawMessage `json:"payload"`
}

// DSAPayload advertises a participant's intent to join a denomination.
type DSAPayload struct {
	ProtoVersion int         `json:"proto_version"`
	Denom        uint32      `json:"denom"`
	Collateral   wire.MsgTx  `json:"collateral"`
	InputValues  []int64     `json:"input_values"`
}

// DSQPayload is a coordinator's signed queue advertisement.
type DSQPayload struct {
	Denom       uint32        `json:"denom"`
	Coordinator wire.OutPoint `json:"coordinator"`
	Timestamp   int64         `json:"timestamp"`
	Ready       bool          `json:"ready"`
	Signature   []byte        `json:"signature"`
}

// DSIEntryInput is one input of a dsi submission.
type DSIEntryInput struct {
	TxIn         wire.TxIn `json:"txin"`
	PrevValue    int64     `json:"prev_value"`
	PrevPkScript []byte    `json:"prev_pk_script"`
}

// DSIPayload submits unsigned inputs, outputs and re-asserted collateral
// for an already-queued participant.
type DSIPayload struct {
	Collateral  wire.MsgTx      `json:"collateral"`
	InputValues []int64         `json:"input_values"`
	Inputs      []DSIEntryInput `json:"inputs"`
	Outputs     []wire.TxOut    `json:"outputs"`
}

// DSFPayload relays the assembled, still-unsigned final transaction to
// every admitted participant.
type DSFPayload struct {
	SessionID uint32     `json:"session_id"`
	FinalTx   wire.MsgTx `json:"final_tx"`
}

// DSSPayload carries one participant's signed input back to the
// coordinator.
type DSSPayload struct {
	TxIn wire.TxIn `json:"txin"`
}

// DSCPayload is the coordinator's completion notice.
type DSCPayload struct {
	SessionID uint32 `json:"session_id"`
	Reason    int    `json:"reason"`
}

// DSSUPayload is a coordinator status push.
type DSSUPayload struct {
	SessionID uint32 `json:"session_id"`
	State     int    `json:"state"`
	Entries   int    `json:"entries"`
	Reason    int    `json:"reason"`
}

// DSTXPayload gossips a fully-signed, broadcast mix transaction.
type DSTXPayload struct {
	Tx wire.MsgTx `json:"tx"`
}

func build(requestID string, cmd Command, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("wireproto: encode %s payload: %w", cmd, err)
	}
	return Envelope{RequestID: requestID, Command: cmd, Payload: raw}, nil
}

func BuildDSA(requestID string, p DSAPayload) (Envelope, error)   { return build(requestID, CmdDSA, p) }
func BuildDSQ(requestID string, p DSQPayload) (Envelope, error)   { return build(requestID, CmdDSQ, p) }
func BuildDSI(requestID string, p DSIPayload) (Envelope, error)   { return build(requestID, CmdDSI, p) }
func BuildDSF(requestID string, p DSFPayload) (Envelope, error)   { return build(requestID, CmdDSF, p) }
func BuildDSS(requestID string, p DSSPayload) (Envelope, error)   { return build(requestID, CmdDSS, p) }
func BuildDSC(requestID string, p DSCPayload) (Envelope, error)   { return build(requestID, CmdDSC, p) }
func BuildDSSU(requestID string, p DSSUPayload) (Envelope, error) { return build(requestID, CmdDSSU, p) }
func BuildDSTX(requestID string, p DSTXPayload) (Envelope, error) { return build(requestID, CmdDSTX, p) }

// Decode unmarshals env's payload into out, returning a wrapped error
// naming the command on failure so a bad peer message never panics the
// dispatch switch.
func Decode(env Envelope, out interface{}) error {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("wireproto: decode %s payload: %w", env.Command, err)
	}
	return nil
}
