package warmup

// RampFunc maps a warmup day to a daily send limit. The function must be
// monotonic: a later day never maps to a smaller limit.
type RampFunc func(day int) int

// rampStep is one row of the stepped warmup schedule.
type rampStep struct {
	FromDay    int
	DailyLimit int
}

// defaultSchedule is the stepped ramp applied to new sending domains. The
// early days stay conservative so mailbox providers build a reputation
// profile before volume climbs.
var defaultSchedule = []rampStep{
	{FromDay: 0, DailyLimit: 50},
	{FromDay: 3, DailyLimit: 100},
	{FromDay: 5, DailyLimit: 250},
	{FromDay: 7, DailyLimit: 500},
	{FromDay: 9, DailyLimit: 1000},
	{FromDay: 11, DailyLimit: 2500},
	{FromDay: 14, DailyLimit: 5000},
	{FromDay: 17, DailyLimit: 10000},
	{FromDay: 21, DailyLimit: 15000},
	{FromDay: 26, DailyLimit: 25000},
}

// DefaultRamp returns the stepped schedule limit for the given day.
func DefaultRamp(day int) int {
	limit := defaultSchedule[0].DailyLimit
	for _, step := range defaultSchedule {
		if day >= step.FromDay {
			limit = step.DailyLimit
		}
	}
	return limit
}
