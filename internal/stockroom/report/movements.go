package report

import (
	"context"

	"github.com/medflow/stockroom/internal/stockroom/domain"
)

// LogFilter narrows the movement log. Movements without expiry are kept
// unless ExcludeNoExpiry is set; the expiry range only applies to dated ones.
type LogFilter struct {
	StudyIDs        []int64      `json:"study_ids"`
	ProductIDs      []int64      `json:"product_ids"`
	Actors          []string     `json:"actors"`
	ExpiryFrom      *domain.Date `json:"expiry_from"`
	ExpiryTo        *domain.Date `json:"expiry_to"`
	ExcludeNoExpiry bool         `json:"exclude_no_expiry"`
	Lots            []string     `json:"lots"`
}

// LogRow is a movement with its study and product names
type LogRow struct {
	domain.Movement
	StudyName   string `json:"study_name"`
	ProductName string `json:"product_name"`
}

// LogOptions are the filter values present in the ledger. Lots are taken
// from the movements left after every filter except the lot filter.
type LogOptions struct {
	Studies  []Option `json:"studies"`
	Products []Option `json:"products"`
	Actors   []string `json:"actors"`
	Lots     []string `json:"lots"`
}

// MovementLog is the filtered ledger, newest first
type MovementLog struct {
	Rows    []LogRow   `json:"rows"`
	Options LogOptions `json:"options"`
}

// MovementLog lists movements newest first with their names resolved
func (s *Service) MovementLog(ctx context.Context, filter LogFilter) (*MovementLog, error) {
	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	studies := newIDSet(filter.StudyIDs)
	products := newIDSet(filter.ProductIDs)
	actors := newStringSet(filter.Actors)
	lots := newStringSet(filter.Lots)

	studyOptions := make(map[int64]string)
	productOptions := make(map[int64]string)
	actorOptions := make(map[string]bool)
	lotOptions := make(map[string]bool)

	log := &MovementLog{Rows: []LogRow{}}
	for _, r := range rows {
		studyOptions[r.StudyID] = r.StudyName
		productOptions[r.ProductID] = r.ProductName
		if r.Actor != "" {
			actorOptions[r.Actor] = true
		}

		if !studies.pass(r.StudyID) || !products.pass(r.ProductID) || !actors.pass(r.Actor) {
			continue
		}
		if r.Expiry == nil {
			if filter.ExcludeNoExpiry {
				continue
			}
		} else if !inRange(*r.Expiry, filter.ExpiryFrom, filter.ExpiryTo) {
			continue
		}

		if r.Lot != nil {
			lotOptions[*r.Lot] = true
		}
		if len(lots) > 0 && (r.Lot == nil || !lots[*r.Lot]) {
			continue
		}

		log.Rows = append(log.Rows, LogRow{Movement: r.Movement, StudyName: r.StudyName, ProductName: r.ProductName})
	}

	log.Options = LogOptions{
		Studies:  options(studyOptions),
		Products: options(productOptions),
		Actors:   sortedStrings(actorOptions),
		Lots:     sortedStrings(lotOptions),
	}
	return log, nil
}
