package scheduling

// ResolveAvailable returns the slots whose start time is not taken by any of
// the bookings, in the order the slots were given. Unavailable slots are
// dropped. The caller is expected to pass only non-cancelled bookings, but
// cancelled ones are ignored here as well.
func ResolveAvailable(slots []WeeklySlot, bookings []Booking) []ResolvedSlot {
	booked := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if b.Status == StatusCancelled {
			continue
		}
		booked[b.StartTime] = struct{}{}
	}

	out := make([]ResolvedSlot, 0, len(slots))
	for _, s := range slots {
		if !s.IsAvailable {
			continue
		}
		if _, taken := booked[s.StartTime]; taken {
			continue
		}
		out = append(out, ResolvedSlot{
			ID:        s.ID,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Available: true,
		})
	}
	return out
}
