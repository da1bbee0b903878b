package mixing

import "errors"

// Sentinel errors, one per PoolMessage reason code a rejected request
// can surface. Dispatcher code maps these to a ReasonCode with errors.Is.
var (
	ErrAlreadyHave        = errors.New("mixing: already have")
	ErrDenom              = errors.New("mixing: incompatible denomination")
	ErrEntriesFull         = errors.New("mixing: entries full")
	ErrExistingTx         = errors.New("mixing: existing transaction")
	ErrFees               = errors.New("mixing: fee requirements not met")
	ErrInvalidCollateral  = errors.New("mixing: invalid collateral")
	ErrInvalidInput       = errors.New("mixing: invalid input")
	ErrInvalidScript      = errors.New("mixing: invalid script")
	ErrInvalidTx          = errors.New("mixing: invalid transaction")
	ErrMaximum            = errors.New("mixing: maximum exceeded")
	ErrMissingTx          = errors.New("mixing: missing transaction")
	ErrMode               = errors.New("mixing: wrong mode")
	ErrNonStandardPubKey  = errors.New("mixing: non-standard pubkey")
	ErrQueueFull          = errors.New("mixing: queue full")
	ErrRecent             = errors.New("mixing: too recent")
	ErrSession            = errors.New("mixing: session mismatch")
	ErrVersion            = errors.New("mixing: protocol version too old")

	// ErrPeerGone is returned by a PeerHandle when the underlying
	// connection no longer exists; callers treat the participant as
	// having disconnected rather than scanning a live peer table.
	ErrPeerGone = errors.New("mixing: peer gone")
)

// ReasonCode mirrors PoolMessage: the small, closed set of reasons a
// coordinator ever gives a participant for rejecting or completing a
// request.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonAlreadyHave
	ReasonDenom
	ReasonEntriesFull
	ReasonExistingTx
	ReasonFees
	ReasonInvalidCollateral
	ReasonInvalidInput
	ReasonInvalidScript
	ReasonInvalidTx
	ReasonMaximum
	ReasonMissingTx
	ReasonMode
	ReasonNonStandardPubKey
	ReasonQueueFull
	ReasonRecent
	ReasonSession
	ReasonVersion
	ReasonSuccess
	ReasonEntriesAdded
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonAlreadyHave:
		return "ALREADY_HAVE"
	case ReasonDenom:
		return "DENOM"
	case ReasonEntriesFull:
		return "ENTRIES_FULL"
	case ReasonExistingTx:
		return "EXISTING_TX"
	case ReasonFees:
		return "FEES"
	case ReasonInvalidCollateral:
		return "INVALID_COLLATERAL"
	case ReasonInvalidInput:
		return "INVALID_INPUT"
	case ReasonInvalidScript:
		return "INVALID_SCRIPT"
	case ReasonInvalidTx:
		return "INVALID_TX"
	case ReasonMaximum:
		return "MAXIMUM"
	case ReasonMissingTx:
		return "MISSING_TX"
	case ReasonMode:
		return "MODE"
	case ReasonNonStandardPubKey:
		return "NON_STANDARD_PUBKEY"
	case ReasonQueueFull:
		return "QUEUE_FULL"
	case ReasonRecent:
		return "RECENT"
	case ReasonSession:
		return "SESSION"
	case ReasonVersion:
		return "VERSION"
	case ReasonSuccess:
		return "SUCCESS"
	case ReasonEntriesAdded:
		return "ENTRIES_ADDED"
	default:
		return "UNKNOWN"
	}
}

// ReasonFor classifies err against the sentinel table above, the
// coordinator-side equivalent of picking a PoolMessage for a CheckPool
// or AddEntry failure.
func ReasonFor(err error) ReasonCode {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrAlreadyHave):
		return ReasonAlreadyHave
	case errors.Is(err, ErrDenom):
		return ReasonDenom
	case errors.Is(err, ErrEntriesFull):
		return ReasonEntriesFull
	case errors.Is(err, ErrExistingTx):
		return ReasonExistingTx
	case errors.Is(err, ErrFees):
		return ReasonFees
	case errors.Is(err, ErrInvalidCollateral):
		return ReasonInvalidCollateral
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrInvalidScript):
		return ReasonInvalidScript
	case errors.Is(err, ErrInvalidTx):
		return ReasonInvalidTx
	case errors.Is(err, ErrMaximum):
		return ReasonMaximum
	case errors.Is(err, ErrMissingTx):
		return ReasonMissingTx
	case errors.Is(err, ErrMode):
		return ReasonMode
	case errors.Is(err, ErrNonStandardPubKey):
		return ReasonNonStandardPubKey
	case errors.Is(err, ErrQueueFull):
		return ReasonQueueFull
	case errors.Is(err, ErrRecent):
		return ReasonRecent
	case errors.Is(err, ErrSession):
		return ReasonSession
	case errors.Is(err, ErrVersion):
		return ReasonVersion
	default:
		return ReasonInvalidInput
	}
}
