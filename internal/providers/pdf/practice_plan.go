package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GeneratePracticePlan(ctx context.Context, plan PracticePlanData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Practice Plan", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(10,
		text.NewCol(12, plan.Title, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Team: "+plan.TeamName, props.Text{Top: 0}),
			text.New("Scheduled: "+plan.ScheduledAt, props.Text{Top: 4}),
			text.New("Duration: "+plan.Duration, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Focus: "+plan.FocusAreas, props.Text{Top: 0}),
		),
	)

	if plan.Notes != "" {
		m.AddRow(18,
			text.NewCol(12, plan.Notes, props.Text{
				Size: 9,
				Top:  0,
			}),
		)
	}

	m.AddRow(10,
		text.NewCol(1, "#", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(7, "Drill", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Level", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Minutes", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, drill := range plan.Drills {
		m.AddRow(12,
			text.NewCol(1, fmt.Sprintf("%d", drill.Order), props.Text{Size: 9}),
			text.NewCol(7, drill.Title, props.Text{Size: 9}),
			text.NewCol(2, drill.SkillLevel, props.Text{Size: 9}),
			text.NewCol(2, drill.Minutes, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
