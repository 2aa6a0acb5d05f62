// README: Cost scoring for accepting volunteers (pure computation).
package auction

// Cost scores one accepting volunteer. Lower is better. Travel time is
// the base; capacity and karma each shrink it multiplicatively, so a
// farther but better-qualified volunteer can still win.
//
//	capacityFactor = 1 / (1 + capacity/100)
//	karmaFactor    = 1 / (1 + karma/100)
//	cost           = travelMinutes * capacityFactor * karmaFactor
//
// travelMinutes and capacity must be non-negative; karma may be negative
// but must stay above -100 (the factor flips sign at -100).
func Cost(travelMinutes, capacity, karma float64) (float64, error) {
	if travelMinutes < 0 || capacity < 0 || karma <= -100 {
		return 0, ErrInvalidInput
	}
	capacityFactor := 1.0 / (1.0 + capacity/100.0)
	karmaFactor := 1.0 / (1.0 + karma/100.0)
	return travelMinutes * capacityFactor * karmaFactor, nil
}
