package credits

const (
	// InitialCredits is granted to every new account.
	InitialCredits = 100

	// FreeTopUpAmount is the fixed bonus added by a free top-up.
	FreeTopUpAmount = 100

	// advisoryPerFileEstimate is the flat pre-extraction estimate used for
	// batch admission warnings. The real cost is computed after extraction.
	advisoryPerFileEstimate = 10
)
