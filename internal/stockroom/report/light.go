package report

import "github.com/medflow/stockroom/internal/stockroom/domain"

// Light is the expiry traffic light of an overview row
type Light string

const (
	LightNone   Light = ""
	LightRed    Light = "red"
	LightOrange Light = "orange"
	LightYellow Light = "yellow"
	LightBlue   Light = "blue"
	LightGreen  Light = "green"
)

// LightFor classifies an expiry relative to today: expired is red, then
// orange up to 30 days, yellow up to 60, blue up to 90 and green beyond.
// No expiry gets no light.
func LightFor(expiry *domain.Date, today domain.Date) Light {
	if expiry == nil {
		return LightNone
	}
	days := expiry.DaysUntil(today)
	switch {
	case days < 0:
		return LightRed
	case days <= 30:
		return LightOrange
	case days <= 60:
		return LightYellow
	case days <= 90:
		return LightBlue
	default:
		return LightGreen
	}
}

// Emoji renders the light the way the pages show it
func (l Light) Emoji() string {
	switch l {
	case LightRed:
		return "🔴"
	case LightOrange:
		return "🟠"
	case LightYellow:
		return "🟡"
	case LightBlue:
		return "🔵"
	case LightGreen:
		return "🟢"
	default:
		return ""
	}
}
