package mockapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan/internal/places"
	"github.com/wanderplan/wanderplan/internal/plans"
)

const planCurrency = "VND"

var slotTimes = []string{"09:00", "13:30", "19:00"}

// priceLevelCost is the per-traveller cost of a visit by price level.
var priceLevelCost = []int64{0, 50_000, 150_000, 500_000, 1_200_000}

// buildItinerary spreads the candidate places over the requested days,
// three slots a day, skipping visits that would exceed a positive budget.
func buildItinerary(req plans.GenerateRequest, candidates []places.Place, start time.Time) plans.Plan {
	travelers := int64(req.Travelers)
	if travelers < 1 {
		travelers = 1
	}

	plan := plans.Plan{
		ID:          uuid.NewString(),
		Title:       fmt.Sprintf("%d days in %s", req.Days, req.Destination),
		Destination: req.Destination,
		StartDate:   start.Format(time.DateOnly),
		EndDate:     start.AddDate(0, 0, req.Days-1).Format(time.DateOnly),
		Itinerary:   make([]plans.DayPlan, 0, req.Days),
		Currency:    planCurrency,
		CreatedAt:   time.Now().UTC(),
	}
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		plan.Title += ": " + prompt
	}

	next := 0
	for day := 1; day <= req.Days; day++ {
		dp := plans.DayPlan{
			Day:        day,
			Date:       start.AddDate(0, 0, day-1).Format(time.DateOnly),
			Activities: []plans.Activity{},
		}
		for _, slot := range slotTimes {
			if next >= len(candidates) {
				break
			}
			p := candidates[next]
			next++
			cost := visitCost(p) * travelers
			if req.Budget > 0 && plan.TotalCost+cost > req.Budget {
				continue
			}
			loc := p.Location
			dp.Activities = append(dp.Activities, plans.Activity{
				Time:        slot,
				Title:       p.Name,
				Description: p.Address,
				PlaceID:     p.ID,
				Location:    &loc,
				Cost:        cost,
			})
			plan.TotalCost += cost
		}
		plan.Itinerary = append(plan.Itinerary, dp)
	}
	return plan
}

func visitCost(p places.Place) int64 {
	if p.PriceLevel < 0 || p.PriceLevel >= len(priceLevelCost) {
		return priceLevelCost[len(priceLevelCost)-1]
	}
	return priceLevelCost[p.PriceLevel]
}

// rankForInterests moves places whose category matches an interest first,
// keeping catalogue order otherwise.
func rankForInterests(candidates []places.Place, interests []string) []places.Place {
	if len(interests) == 0 {
		return candidates
	}
	wanted := make(map[string]bool, len(interests))
	for _, i := range interests {
		wanted[strings.ToLower(strings.TrimSpace(i))] = true
	}
	ranked := make([]places.Place, 0, len(candidates))
	var rest []places.Place
	for _, p := range candidates {
		if wanted[strings.ToLower(p.Category)] {
			ranked = append(ranked, p)
		} else {
			rest = append(rest, p)
		}
	}
	return append(ranked, rest...)
}
