package pair

import "time"

// snapshot is everything one poll cycle knows: whether each leg is still
// a working order, and where the clock stands against the deadline.
type snapshot struct {
	AOpen    bool
	BOpen    bool
	Now      time.Time
	Deadline time.Time
}

// verdict is what a snapshot implies. CancelA/CancelB name the legs
// cleanup must remove; FilledA/FilledB the legs that left the working
// set. A pending verdict means keep polling.
type verdict struct {
	Resolution Resolution
	FilledA    bool
	FilledB    bool
	CancelA    bool
	CancelB    bool
}

// decide maps one snapshot to a verdict. It is deliberately pure: the
// whole cycle acts on a single consistent reading, so a leg filling
// between two reads within the same cycle cannot produce a split
// decision. Fills win over the deadline when both show up in the same
// snapshot.
func decide(s snapshot) verdict {
	switch {
	case !s.AOpen && !s.BOpen:
		return verdict{Resolution: ResolutionBothFilled, FilledA: true, FilledB: true}
	case !s.AOpen:
		return verdict{Resolution: ResolutionOneFilled, FilledA: true, CancelB: true}
	case !s.BOpen:
		return verdict{Resolution: ResolutionOneFilled, FilledB: true, CancelA: true}
	case !s.Now.Before(s.Deadline):
		return verdict{Resolution: ResolutionTimedOut, CancelA: true, CancelB: true}
	}
	return verdict{Resolution: ResolutionPending}
}
