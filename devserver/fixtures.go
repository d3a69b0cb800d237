package devserver

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"taquilla-cli/seating"
)

type place struct {
	ID       string
	Name     string
	Location string
	Venue    seating.VenueType
}

type event struct {
	ID       string
	PlaceID  string
	Title    string
	Room     string
	StartsAt string
	Venue    seating.VenueType
	sections map[string]*seating.Section
	// capacity is set for general admission events.
	capacity int
	price    decimal.Decimal
}

type fixtures struct {
	places []place
	events map[string]*event
	order  []string
}

var theaterShows = []string{"La casa de Bernarda Alba", "Hamlet", "El lago de los cisnes"}
var cinemaFilms = []string{"Dune: Parte Dos", "Intensa-Mente 2", "Robot salvaje"}

func newFixtures() *fixtures {
	f := &fixtures{events: make(map[string]*event)}
	f.places = []place{
		{ID: "1", Name: "Teatro Nacional", Location: "Centro", Venue: seating.Theater},
		{ID: "2", Name: "Teatro Municipal", Location: "Barrio Norte", Venue: seating.Theater},
		{ID: "10", Name: "Cine Plaza", Location: "Plaza Mayor", Venue: seating.Cinema},
		{ID: "11", Name: "Cine Costanera", Location: "Costanera", Venue: seating.Cinema},
		{ID: "20", Name: "Museo de Bellas Artes", Location: "Parque Central", Venue: seating.Museum},
		{ID: "21", Name: "Museo de Historia Natural", Location: "Avenida del Lago", Venue: seating.Museum},
	}

	theater := seating.VenueFor(seating.Theater)
	cinema := seating.VenueFor(seating.Cinema)
	museum := seating.VenueFor(seating.Museum)
	for _, p := range f.places {
		switch p.Venue {
		case seating.Theater:
			for i, title := range theaterShows {
				f.add(&event{
					ID:       fmt.Sprintf("t%s-%d", p.ID, i+1),
					PlaceID:  p.ID,
					Title:    title,
					StartsAt: fmt.Sprintf("2026-11-%02dT20:00:00", 5+i),
					Venue:    p.Venue,
					sections: theater.MockSections(),
				})
			}
		case seating.Cinema:
			for i, room := range cinema.RoomTypes() {
				section := cinema.MockSection(room)
				f.add(&event{
					ID:       fmt.Sprintf("c%s-%s", p.ID, section.Key),
					PlaceID:  p.ID,
					Title:    cinemaFilms[i%len(cinemaFilms)],
					Room:     room,
					StartsAt: fmt.Sprintf("2026-11-01T%02d:30:00", 14+i%8),
					Venue:    p.Venue,
					sections: map[string]*seating.Section{section.Key: section},
				})
			}
		case seating.Museum:
			item := museum.DefaultItems("")[0]
			f.add(&event{
				ID:       "m" + p.ID,
				PlaceID:  p.ID,
				Title:    "Entrada general " + p.Name,
				StartsAt: "2026-11-01T09:00:00",
				Venue:    p.Venue,
				capacity: museum.DefaultCapacity,
				price:    item.UnitPrice,
			})
		}
	}
	return f
}

func (f *fixtures) add(e *event) {
	f.events[e.ID] = e
	f.order = append(f.order, e.ID)
}

func (f *fixtures) placesOf(venue seating.VenueType) []place {
	var out []place
	for _, p := range f.places {
		if p.Venue == venue {
			out = append(out, p)
		}
	}
	return out
}

func (f *fixtures) place(id string) (place, bool) {
	i := slices.IndexFunc(f.places, func(p place) bool { return p.ID == id })
	if i < 0 {
		return place{}, false
	}
	return f.places[i], true
}

// eventsOf lists the events of a place, optionally only one cinema room.
func (f *fixtures) eventsOf(placeID, room string) []*event {
	var out []*event
	for _, id := range f.order {
		e := f.events[id]
		if e.PlaceID != placeID {
			continue
		}
		if room != "" && seating.NormalizeKey(e.Room) != seating.NormalizeKey(room) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (f *fixtures) museumEvent(placeID string) (*event, bool) {
	for _, e := range f.eventsOf(placeID, "") {
		if e.Venue == seating.Museum {
			return e, true
		}
	}
	return nil, false
}
