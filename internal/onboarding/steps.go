// Package onboarding derives the investor onboarding progress from a user
// snapshot. Nothing here is persisted: steps are recomputed from the user
// fields on every read.
package onboarding

import "github.com/brickfund/platform/internal/model"

type StepID string

const (
	StepIdentity            StepID = "identity"
	StepBasicInfo           StepID = "basic_info"
	StepRegulatoryQuestions StepID = "regulatory_questions"
	StepInvestorProfile     StepID = "investor_profile"
)

type Status string

const (
	StatusLocked    Status = "locked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Order is the fixed step sequence.
var Order = []StepID{StepIdentity, StepBasicInfo, StepRegulatoryQuestions, StepInvestorProfile}

type Step struct {
	ID     StepID `json:"id"`
	Status Status `json:"status"`
}

// satisfied reports whether the user data backing a step is present.
// The investor profile has no stored data, so it never completes.
func satisfied(id StepID, u *model.User) bool {
	switch id {
	case StepIdentity:
		return u.IdentityVerified()
	case StepBasicInfo:
		return u.BasicInfoComplete()
	case StepRegulatoryQuestions:
		return u.RegulatoryInfo != nil
	default:
		return false
	}
}

// Derive computes every step's status. A step is active only when all
// earlier steps are completed; a step whose data is present but follows an
// incomplete step stays locked.
func Derive(u *model.User) []Step {
	steps := make([]Step, len(Order))
	open := true
	for i, id := range Order {
		switch {
		case !open:
			steps[i] = Step{ID: id, Status: StatusLocked}
		case satisfied(id, u):
			steps[i] = Step{ID: id, Status: StatusCompleted}
		default:
			steps[i] = Step{ID: id, Status: StatusActive}
			open = false
		}
	}
	return steps
}

// Current returns the first active step, or "" when every step is completed.
func Current(steps []Step) StepID {
	for _, s := range steps {
		if s.Status == StatusActive {
			return s.ID
		}
	}
	return ""
}

// StatusOf looks up one step's status.
func StatusOf(steps []Step, id StepID) Status {
	for _, s := range steps {
		if s.ID == id {
			return s.Status
		}
	}
	return StatusLocked
}
