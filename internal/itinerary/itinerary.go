package itinerary

// DefaultTitle is shown when the document carries no title.
const DefaultTitle = "My Vacation"

// ItemType identifies the kind of an itinerary entry.
type ItemType string

const (
	TypeFlight     ItemType = "flight"
	TypeHotel      ItemType = "hotel"
	TypeRestaurant ItemType = "restaurant"
	TypeActivity   ItemType = "activity"
	TypeTransport  ItemType = "transport"
	TypeShow       ItemType = "show"
)

// Itinerary is the top-level document served as data.json.
type Itinerary struct {
	Title    string `json:"title" yaml:"title"`
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Days     []Day  `json:"days" yaml:"days"`
}

// Day groups the entries of one calendar day under a label.
type Day struct {
	Label string `json:"label" yaml:"label"`
	Items []Item `json:"items" yaml:"items"`
}

// Item is a single card on the page.
type Item struct {
	Type          ItemType `json:"type" yaml:"type"`
	Time          string   `json:"time" yaml:"time"`
	Title         string   `json:"title" yaml:"title"`
	Location      string   `json:"location,omitempty" yaml:"location,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	TicketURL     string   `json:"ticketUrl,omitempty" yaml:"ticketUrl,omitempty"`
	Tickets       []Ticket `json:"tickets,omitempty" yaml:"tickets,omitempty"`
	DirectionsURL string   `json:"directionsUrl,omitempty" yaml:"directionsUrl,omitempty"`
	Checklist     []string `json:"checklist,omitempty" yaml:"checklist,omitempty"`
}

// Ticket is a labelled link to a ticket document.
type Ticket struct {
	URL   string `json:"url" yaml:"url"`
	Label string `json:"label" yaml:"label"`
}

// DisplayTitle returns the title, falling back to DefaultTitle.
func (it *Itinerary) DisplayTitle() string {
	if it.Title == "" {
		return DefaultTitle
	}
	return it.Title
}

// ItemCount returns the number of items across all days.
func (it *Itinerary) ItemCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Items)
	}
	return n
}

// HasActions reports whether the item links to tickets or directions.
func (i Item) HasActions() bool {
	return i.TicketURL != "" || len(i.Tickets) > 0 || i.DirectionsURL != ""
}

// HasDetails reports whether the item has anything to show in its
// expandable panel.
func (i Item) HasDetails() bool {
	return i.Location != "" || i.Description != "" || i.HasActions() || len(i.Checklist) > 0
}
