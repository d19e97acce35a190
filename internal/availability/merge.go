package availability

import (
	"sort"

	"cloud.google.com/go/civil"
)

type dayIndex struct {
	date    civil.Date
	byKey   map[string]*MergedSlot
	ordered []*MergedSlot
}

// MergeStaffSlots folds per-staff results into one calendar. perStaff[i] must
// belong to members[i]; staff lists follow members order. Slots sharing the exact
// same (start, end) on a date collapse into one MergedSlot. Each date's slots are
// sorted by start and dates are sorted ascending.
func MergeStaffSlots(members []StaffMember, perStaff [][]DaySlots) []DayMergedSlots {
	index := make(map[civil.Date]*dayIndex)
	for i, member := range members {
		if i >= len(perStaff) {
			break
		}
		for _, day := range perStaff[i] {
			idx, ok := index[day.Date]
			if !ok {
				idx = &dayIndex{date: day.Date, byKey: make(map[string]*MergedSlot)}
				index[day.Date] = idx
			}
			for _, slot := range day.Slots {
				key := slot.key()
				merged, ok := idx.byKey[key]
				if !ok {
					merged = &MergedSlot{Start: slot.Start, End: slot.End, Staff: []StaffMember{}}
					idx.byKey[key] = merged
					idx.ordered = append(idx.ordered, merged)
				}
				merged.Staff = append(merged.Staff, member)
			}
		}
	}

	out := make([]DayMergedSlots, 0, len(index))
	for _, idx := range index {
		slots := make([]MergedSlot, 0, len(idx.ordered))
		for _, merged := range idx.ordered {
			slots = append(slots, *merged)
		}
		sort.SliceStable(slots, func(a, b int) bool {
			return slots[a].Start < slots[b].Start
		})
		out = append(out, DayMergedSlots{Date: idx.date, Slots: slots})
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Date.Before(out[b].Date)
	})
	return out
}
