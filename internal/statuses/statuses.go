package statuses

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Game results as stored in the archive.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
	ResultUnknown   = "*"
)
