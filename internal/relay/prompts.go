package relay

// Texts shown to end users. The apology carries no failure detail:
// whatever broke internally, the chat sees the same fixed line.
const (
	defaultWelcome = "👋 Hi! I'm your assistant. Send me a message and I'll answer."
	defaultApology = "Sorry, something went wrong. Please try again later."
)

// startSentinel marks greeting exchanges in the audit trail.
const startSentinel = "/start"
