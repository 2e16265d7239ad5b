package quota

// Limits are the numeric caps of a plan.
type Limits struct {
	MaxProjects          int64
	MonthlyMessageCap    int64
	MonthlyUploadCharCap int64
}

// Decision is the result of a single gate.
type Decision struct {
	Outcome   Outcome
	Used      int64
	Limit     int64
	Requested int64
}

func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// Err returns nil when allowed, otherwise the mapped application error.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return d.Outcome.Error()
}

// Remaining is how much of the limit is left after this decision, floored at 0.
func (d Decision) Remaining() int64 {
	r := d.Limit - d.Used - d.Requested
	if !d.Allowed() || r < 0 {
		return 0
	}
	return r
}

// EvaluateProjectCreation allows iff existing < MaxProjects.
func EvaluateProjectCreation(existing int64, limits Limits) Decision {
	d := Decision{Used: existing, Limit: limits.MaxProjects, Requested: 1, Outcome: OutcomeAllowed}
	if existing >= limits.MaxProjects {
		d.Outcome = OutcomeProjectLimitReached
	}
	return d
}

// EvaluateUpload allows iff alreadyUploaded + incoming <= MonthlyUploadCharCap.
// The batch is judged as a whole.
func EvaluateUpload(alreadyUploaded, incoming int64, limits Limits) Decision {
	d := Decision{Used: alreadyUploaded, Limit: limits.MonthlyUploadCharCap, Requested: incoming, Outcome: OutcomeAllowed}
	if alreadyUploaded+incoming > limits.MonthlyUploadCharCap {
		d.Outcome = OutcomeUploadCapExceeded
	}
	return d
}

// EvaluateMessage allows iff used < MonthlyMessageCap.
func EvaluateMessage(used int64, limits Limits) Decision {
	d := Decision{Used: used, Limit: limits.MonthlyMessageCap, Requested: 1, Outcome: OutcomeAllowed}
	if used >= limits.MonthlyMessageCap {
		d.Outcome = OutcomeMessageCapReached
	}
	return d
}
