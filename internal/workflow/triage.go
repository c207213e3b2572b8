package workflow

import "time"

// Bucket is where a collaboration lands on a viewer's dashboard.
type Bucket string

const (
	BucketNeedsAttention Bucket = "needs_attention"
	BucketMyAction       Bucket = "my_action"
	BucketWaiting        Bucket = "waiting"
	BucketDone           Bucket = "done"
)

// Triage places one collaboration for a viewer. Exceptions only surface to
// hosts and take priority over everything else.
func Triage(t Timeline, role Role, now time.Time, th Thresholds) (Bucket, *Exception) {
	if role == RoleHost {
		if exc := DetectException(t, now, th); exc != nil {
			return BucketNeedsAttention, exc
		}
	}
	action := ResolveRoleAction(t.Status, role)
	switch {
	case action.HasAction:
		return BucketMyAction, nil
	case action.WaitingOnLabel != "":
		return BucketWaiting, nil
	default:
		return BucketDone, nil
	}
}
