package display

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"busmonitor.dev/internal/clock"
	"busmonitor.dev/internal/models"
	"busmonitor.dev/internal/schedule"
	"busmonitor.dev/internal/utils"
)

// Layout metrics of the 7x13 panel font.
const (
	FontWidth  = 7
	FontHeight = 13

	header         = " STOP LINE                 TIME     "
	firstRowY      = 2*FontHeight + 2
	ruleY          = FontHeight + 2
	strikeOffset   = 4
	ellipsisRaise  = 5
	labelOffset    = 7
	destinationLen = 15
	// timelineMargin keeps the bus, stop and battery icons inside the panel.
	timelineMargin = 3 * IconSize
)

// boxedText blanks the cell behind each glyph.
var (
	plainText = TextStyle{Color: color.Black}
	boxedText = TextStyle{Color: color.Black, Background: color.White}
	thinLine  = LineStyle{Color: color.Black, Width: 1}
)

// renderer draws the fixed layout: chrome, arrival table and timeline.
type renderer struct {
	surface  Surface
	clock    clock.Clock
	assets   *assets
	schedule *schedule.Table
	window   time.Duration
}

func (r *renderer) size() (width, height int) {
	b := r.surface.Bounds()
	return b.Dx(), b.Dy()
}

// tableLimit is the first baseline that would run into the timeline band.
func (r *renderer) tableLimit() int {
	_, h := r.size()
	return h - 2*IconSize
}

// drawChrome paints the static frame: header with the connection icons,
// rule, battery and the current time.
func (r *renderer) drawChrome() error {
	w, h := r.size()

	if err := r.surface.Clear(color.White); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := r.surface.DrawText(image.Pt(0, FontHeight), header, plainText); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	if err := r.surface.DrawImage(image.Pt(len(header)*FontWidth, 0), r.assets.school); err != nil {
		return fmt.Errorf("school icon: %w", err)
	}
	if err := r.surface.DrawImage(image.Pt((len(header)+7)*FontWidth, 0), r.assets.work); err != nil {
		return fmt.Errorf("work icon: %w", err)
	}
	battery := r.assets.battery[len(r.assets.battery)-1]
	if err := r.surface.DrawImage(image.Pt(w-1-IconSize, h-1-IconSize), battery); err != nil {
		return fmt.Errorf("battery icon: %w", err)
	}
	if err := r.surface.DrawLine(image.Pt(0, ruleY), image.Pt(w-1, ruleY), thinLine); err != nil {
		return fmt.Errorf("rule: %w", err)
	}

	now := r.clock.Now().Format("15:04")
	if err := r.surface.DrawText(image.Pt(w-1-FontWidth*5-3, FontHeight-4), now, plainText); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	return nil
}

// drawText draws one line of free text with its baseline at y.
func (r *renderer) drawText(y int, text string) error {
	return r.surface.DrawText(image.Pt(0, y), utils.FoldToASCII(text), plainText)
}

// formatRow renders one table row: stop, line, destination, ETA and the
// derived school and work times.
func formatRow(a models.ArrivalTime, school, work string) string {
	destination := utils.Truncate(utils.FoldToASCII(a.Destination), destinationLen)
	return fmt.Sprintf("%4s %3s %-15s %-5s   %-5s   %-5s",
		utils.FoldToASCII(a.StopID), utils.FoldToASCII(a.Line), destination,
		models.TimeString(a), school, work)
}

// drawTable writes one row per arrival from the first row line down. When
// the next row would reach the timeline band the remaining rows are
// replaced by "...". It returns the baseline below the last row.
func (r *renderer) drawTable(list []models.ArrivalTime) (int, error) {
	now := r.clock.Now()
	limit := r.tableLimit()
	y := firstRowY

	for i, a := range list {
		info := r.schedule.Lookup(a.Line)
		school, _ := schedule.DeriveConnectionTime(now, a, info.SecondsToSchool)
		work, _ := schedule.DeriveConnectionTime(now, a, info.SecondsToWork)
		row := formatRow(a, school, work)

		if schedule.IsMissed(a, info) {
			if err := r.drawStruck(y, row); err != nil {
				return y, fmt.Errorf("row %d: %w", i, err)
			}
		} else if err := r.surface.DrawText(image.Pt(0, y), row, plainText); err != nil {
			return y, fmt.Errorf("row %d: %w", i, err)
		}

		y += FontHeight
		if y >= limit {
			if i < len(list)-1 {
				if err := r.surface.DrawText(image.Pt(0, y-ellipsisRaise), "...", plainText); err != nil {
					return y, fmt.Errorf("ellipsis: %w", err)
				}
			}
			break
		}
	}
	return y, nil
}

func (r *renderer) drawStruck(y int, row string) error {
	if err := r.surface.DrawText(image.Pt(0, y), row, boxedText); err != nil {
		return err
	}
	mid := y - strikeOffset
	return r.surface.DrawLine(image.Pt(0, mid), image.Pt(len(row)*FontWidth-1, mid), thinLine)
}

// timelineX maps an ETA onto the timeline axis: now at the right end, the
// edge of the window at x=0.
func timelineX(seconds, windowSeconds uint64, axis int) int {
	return axis - int(seconds*uint64(axis)/windowSeconds)
}

// drawTimeline places a bus icon, labelled with its line, for every
// arrival inside the visibility window.
func (r *renderer) drawTimeline(list []models.ArrivalTime) error {
	w, h := r.size()
	axis := w - 1 - timelineMargin
	windowSeconds := uint64(r.window / time.Second)
	if axis <= 0 || windowSeconds == 0 {
		return nil
	}

	top := h - 1 - IconSize
	for _, a := range list {
		if a.Seconds > windowSeconds {
			continue
		}
		x := timelineX(a.Seconds, windowSeconds, axis)
		if err := r.surface.DrawImage(image.Pt(x, top), r.assets.bus); err != nil {
			return fmt.Errorf("bus icon for line %s: %w", a.Line, err)
		}
		if err := r.surface.DrawText(image.Pt(x+labelOffset, top), utils.FoldToASCII(a.Line), boxedText); err != nil {
			return fmt.Errorf("label for line %s: %w", a.Line, err)
		}
	}
	return nil
}
