package status

import "time"

// Response is the answer of one upstream status query.
// It is one of Success, RetryAfter or Failure.
type Response interface {
	isResponse()
}

// Success carries the status reported by the upstream.
type Success struct {
	ApplicationID     string
	ApplicationStatus string
}

// RetryAfter asks the caller to query again once Delay has passed.
type RetryAfter struct {
	Delay time.Duration
}

// Failure reports that the upstream could not answer.
type Failure struct {
	Cause error
}

func (Success) isResponse()    {}
func (RetryAfter) isResponse() {}
func (Failure) isResponse()    {}

// ApplicationStatus is what a status resolution hands back to its caller.
// It is one of ApplicationSuccess or ApplicationFailure.
type ApplicationStatus interface {
	isApplicationStatus()
}

type ApplicationSuccess struct {
	ID     string
	Status string
}

// ApplicationFailure describes the last failed attempt. LastRequestTime is nil
// when the attempt duration was not measured.
type ApplicationFailure struct {
	LastRequestTime *time.Duration
	RetriesCount    int
}

func (ApplicationSuccess) isApplicationStatus() {}
func (ApplicationFailure) isApplicationStatus() {}
