package engine

// Evaluation reports whether accumulated engaged time satisfies the
// activity's completion condition.
type Evaluation struct {
	Complete        bool
	FirstTransition bool
}

// Evaluate is a pure function of accumulated vs required seconds.
// FirstTransition is true only on the call where Complete flips false→true;
// it is the sole trigger for reward settlement, so re-evaluating an
// already-complete record never reports it again.
//
// requiredSeconds greater than the activity's total duration is valid
// configuration: accumulation is clamped at the total, so Complete simply
// never becomes true.
func Evaluate(accumulatedSeconds, requiredSeconds int, alreadyComplete bool) Evaluation {
	if alreadyComplete {
		return Evaluation{Complete: true}
	}
	if requiredSeconds > 0 && accumulatedSeconds >= requiredSeconds {
		return Evaluation{Complete: true, FirstTransition: true}
	}
	return Evaluation{}
}
