package mockapi

import (
	"sort"
	"strings"
	"sync"

	"github.com/wanderplan/wanderplan/internal/feedback"
	"github.com/wanderplan/wanderplan/internal/places"
	"github.com/wanderplan/wanderplan/internal/plans"
	"github.com/wanderplan/wanderplan/internal/result"
)

// seedPlaces is the fixed catalogue served by the stub.
var seedPlaces = []places.Place{
	{ID: "hoi-an-ancient-town", Name: "Hoi An Ancient Town", Category: "heritage", City: "Hoi An", Address: "Minh An, Hoi An", Location: places.Location{Lat: 15.8770, Lng: 108.3260}, Rating: 4.8, PriceLevel: 1, OpeningHours: "08:00-21:30"},
	{ID: "japanese-covered-bridge", Name: "Japanese Covered Bridge", Category: "heritage", City: "Hoi An", Address: "Nguyen Thi Minh Khai, Hoi An", Location: places.Location{Lat: 15.8772, Lng: 108.3257}, Rating: 4.5, PriceLevel: 1},
	{ID: "an-bang-beach", Name: "An Bang Beach", Category: "beach", City: "Hoi An", Location: places.Location{Lat: 15.9139, Lng: 108.3412}, Rating: 4.6},
	{ID: "hoi-an-night-market", Name: "Hoi An Night Market", Category: "food", City: "Hoi An", Location: places.Location{Lat: 15.8758, Lng: 108.3285}, Rating: 4.3, PriceLevel: 1, OpeningHours: "17:00-22:00"},
	{ID: "marble-mountains", Name: "Marble Mountains", Category: "nature", City: "Da Nang", Location: places.Location{Lat: 16.0034, Lng: 108.2631}, Rating: 4.6, PriceLevel: 1},
	{ID: "dragon-bridge", Name: "Dragon Bridge", Category: "landmark", City: "Da Nang", Location: places.Location{Lat: 16.0611, Lng: 108.2274}, Rating: 4.7},
	{ID: "my-khe-beach", Name: "My Khe Beach", Category: "beach", City: "Da Nang", Location: places.Location{Lat: 16.0544, Lng: 108.2478}, Rating: 4.7},
	{ID: "ba-na-hills", Name: "Ba Na Hills", Category: "nature", City: "Da Nang", Location: places.Location{Lat: 15.9977, Lng: 107.9881}, Rating: 4.4, PriceLevel: 3, OpeningHours: "07:00-22:00"},
	{ID: "han-market", Name: "Han Market", Category: "food", City: "Da Nang", Location: places.Location{Lat: 16.0686, Lng: 108.2243}, Rating: 4.1, PriceLevel: 1},
	{ID: "imperial-city", Name: "Imperial City", Category: "heritage", City: "Hue", Location: places.Location{Lat: 16.4698, Lng: 107.5786}, Rating: 4.6, PriceLevel: 2, OpeningHours: "07:00-17:30"},
	{ID: "thien-mu-pagoda", Name: "Thien Mu Pagoda", Category: "heritage", City: "Hue", Location: places.Location{Lat: 16.4533, Lng: 107.5447}, Rating: 4.6},
	{ID: "dong-ba-market", Name: "Dong Ba Market", Category: "food", City: "Hue", Location: places.Location{Lat: 16.4726, Lng: 107.5883}, Rating: 4.0, PriceLevel: 1},
}

// catalog holds the stub's non-financial state.
type catalog struct {
	mu      sync.RWMutex
	places  []places.Place
	plans   map[string]ownedPlan
	reviews []feedback.Review
	uploads map[string]upload
}

type ownedPlan struct {
	owner string
	plan  plans.Plan
}

type upload struct {
	owner       string
	name        string
	contentType string
	size        int64
}

func newCatalog() *catalog {
	seeded := make([]places.Place, len(seedPlaces))
	copy(seeded, seedPlaces)
	return &catalog{
		places:  seeded,
		plans:   make(map[string]ownedPlan),
		uploads: make(map[string]upload),
	}
}

func (c *catalog) place(id string) (places.Place, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.places {
		if p.ID == id {
			return p, true
		}
	}
	return places.Place{}, false
}

// searchPlaces filters by a case-insensitive name/address match, category
// and city, and pages the result.
func (c *catalog) searchPlaces(search, category, city string, q result.PageQuery) result.Page[places.Place] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	search = strings.ToLower(strings.TrimSpace(search))
	matched := []places.Place{}
	for _, p := range c.places {
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Address+" "+p.City), search) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		matched = append(matched, p)
	}
	return paginate(matched, q)
}

func (c *catalog) placesByID(ids []string) []places.Place {
	out := []places.Place{}
	for _, id := range ids {
		if p, ok := c.place(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalog) placesInCity(city string) []places.Place {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []places.Place{}
	for _, p := range c.places {
		if city == "" || strings.EqualFold(p.City, city) {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalog) savePlan(owner string, p plans.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[p.ID] = ownedPlan{owner: owner, plan: p}
}

func (c *catalog) plan(owner, id string) (plans.Plan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.plans[id]
	if !ok || op.owner != owner {
		return plans.Plan{}, false
	}
	return op.plan, true
}

func (c *catalog) deletePlan(owner, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.plans[id]
	if !ok || op.owner != owner {
		return false
	}
	delete(c.plans, id)
	return true
}

// plansOf lists the owner's plans, newest first.
func (c *catalog) plansOf(owner string, q result.PageQuery) result.Page[plans.Plan] {
	c.mu.RLock()
	owned := []plans.Plan{}
	for _, op := range c.plans {
		if op.owner == owner {
			owned = append(owned, op.plan)
		}
	}
	c.mu.RUnlock()
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return paginate(owned, q)
}

// addReview stores r and folds its rating into the place average.
func (c *catalog) addReview(r feedback.Review) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reviews = append(c.reviews, r)
	for i := range c.places {
		if c.places[i].ID != r.PlaceID {
			continue
		}
		p := &c.places[i]
		total := p.Rating*float64(p.ReviewCount) + float64(r.Rating)
		p.ReviewCount++
		p.Rating = total / float64(p.ReviewCount)
	}
}

// reviewsOf lists reviews of a place, newest first.
func (c *catalog) reviewsOf(placeID string, q result.PageQuery) result.Page[feedback.Review] {
	c.mu.RLock()
	matched := []feedback.Review{}
	for i := len(c.reviews) - 1; i >= 0; i-- {
		if c.reviews[i].PlaceID == placeID {
			matched = append(matched, c.reviews[i])
		}
	}
	c.mu.RUnlock()
	return paginate(matched, q)
}

func (c *catalog) saveUpload(id string, u upload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads[id] = u
}

func (c *catalog) upload(id string) (upload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.uploads[id]
	return u, ok
}

func paginate[T any](all []T, q result.PageQuery) result.Page[T] {
	q = q.Normalize()
	start := (q.Page - 1) * q.Size
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	records := make([]T, end-start)
	copy(records, all[start:end])
	return result.Page[T]{
		Records:  records,
		Total:    len(all),
		Page:     q.Page,
		Size:     q.Size,
		LastPage: (len(all) + q.Size - 1) / q.Size,
	}
}
