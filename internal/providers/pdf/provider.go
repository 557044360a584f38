package pdf

import (
	"context"
	"io"
)

type PracticePlanData struct {
	TeamName    string
	Title       string
	ScheduledAt string
	Duration    string
	FocusAreas  string
	Notes       string

	Drills []PracticePlanDrill
}

type PracticePlanDrill struct {
	Order      int
	Title      string
	SkillLevel string
	Minutes    string
}

type Provider interface {
	GeneratePracticePlan(ctx context.Context, data PracticePlanData) (io.Reader, error)
}
