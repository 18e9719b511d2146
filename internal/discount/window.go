package discount

import (
	"strings"
	"time"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/pricing"
)

const (
	MaxNameLength = 50
	MinPercentage = 1
	MaxPercentage = 100
)

// Window is a named, time-boxed percentage discount owned by a seller and
// attached to a set of products.
type Window struct {
	ID         string    `json:"id,omitempty"`
	SellerID   string    `json:"seller_id,omitempty"`
	Name       string    `json:"discount_name" validate:"required,min=1,max=50"`
	Percentage int       `json:"discount_percentage" validate:"min=1,max=100"`
	Start      time.Time `json:"start_date" validate:"required"`
	End        time.Time `json:"end_date" validate:"required,gtfield=Start"`
	ProductIDs []string  `json:"product_ids" validate:"dive,required"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Normalize trims the name and removes duplicate product ids.
func (w Window) Normalize() Window {
	w.Name = strings.TrimSpace(w.Name)
	w.Start = w.Start.UTC()
	w.End = w.End.UTC()
	if len(w.ProductIDs) > 0 {
		seen := make(map[string]struct{}, len(w.ProductIDs))
		ids := make([]string, 0, len(w.ProductIDs))
		for _, id := range w.ProductIDs {
			id = strings.TrimSpace(id)
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		w.ProductIDs = ids
	}
	return w
}

// Validate enforces name length, percentage bounds and end strictly after start.
func (w Window) Validate() error {
	return common.ValidateStruct(w)
}

func (w Window) Status(now time.Time) pricing.WindowState {
	return pricing.WindowStatus(now, w.Start, w.End)
}

// Buckets splits seller windows for the dashboard; expired windows are left
// to cleanup and not listed.
type Buckets struct {
	Active  []Window `json:"active"`
	Pending []Window `json:"pending"`
}

func Bucket(windows []Window, now time.Time) Buckets {
	b := Buckets{Active: []Window{}, Pending: []Window{}}
	for _, w := range windows {
		switch w.Status(now) {
		case pricing.WindowActive:
			b.Active = append(b.Active, w)
		case pricing.WindowPending:
			b.Pending = append(b.Pending, w)
		}
	}
	return b
}
