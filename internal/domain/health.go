package domain

// Health buckets for reporting. Downstream alerting keys off these, so the
// thresholds are part of the contract.
const (
	HealthHealthy  = "healthy"  // score >= 80
	HealthDegraded = "degraded" // 40 <= score < 80
	HealthCritical = "critical" // score < 40
)

// ScoreFunc computes a 0-100 health score from the verification booleans and
// the bounce rate. It must be pure and deterministic; the scheduler and the
// health endpoint both rely on it returning the same value for the same
// inputs.
type ScoreFunc func(mx, spf, dkim, dmarc bool, bounceRate float64) int

// HealthScore is the default scoring policy: each verified mechanism earns
// 25 points, bounce rate costs up to 40 points (1 point per 0.01), clamped
// to [0, 100].
func HealthScore(mx, spf, dkim, dmarc bool, bounceRate float64) int {
	score := 0
	if mx {
		score += 25
	}
	if spf {
		score += 25
	}
	if dkim {
		score += 25
	}
	if dmarc {
		score += 25
	}

	penalty := int(bounceRate * 100)
	if penalty > 40 {
		penalty = 40
	}
	score -= penalty

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// HealthBucket maps a score to its reporting bucket.
func HealthBucket(score int) string {
	switch {
	case score >= 80:
		return HealthHealthy
	case score >= 40:
		return HealthDegraded
	default:
		return HealthCritical
	}
}
