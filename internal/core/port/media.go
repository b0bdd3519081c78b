package port

// TransportHandler receives lifecycle and participant events from a
// VideoTransport. Implementations must not block: transports may invoke
// these from their own goroutines at any time after Connect.
type TransportHandler interface {
	// OnConnected and OnConnectFailed: a Connect call emits exactly one
	// of the two, never both. The engine enforces its own timeout on top.
	OnConnected(room string)
	OnConnectFailed(err error)

	// OnDisconnected follows every Disconnect, and also fires on remote
	// hangup or network loss.
	OnDisconnected()

	// Track events arrive zero or more times after connection, in
	// arbitrary interleaving. For one trackID, add precedes its remove.
	OnTrackAdded(participantID, trackID string)
	OnTrackRemoved(participantID, trackID string)
}

// VideoTransport abstracts the real-time media provider. The engine is
// written against this interface only; the native and simulated
// implementations satisfy the identical contract.
type VideoTransport interface {
	SetHandler(h TransportHandler)

	// Connect is asynchronous: it returns immediately and reports the
	// outcome through the handler. Room and accessToken are opaque
	// values from the provisioning collaborator, passed through unmodified.
	Connect(room, accessToken string)

	// Disconnect is idempotent and safe from any state. It is always
	// eventually followed by OnDisconnected.
	Disconnect()

	// Local controls are fire-and-forget: they never block the caller
	// and never change remote session state.
	SetLocalAudioEnabled(enabled bool)
	SetLocalVideoEnabled(enabled bool)
	SwitchCamera()
}

// TransportFactory builds a fresh transport for each session. A terminal
// session releases its transport; instances are never reused.
type TransportFactory func() VideoTransport
