package utils

import (
	"fmt"
	"strings"

	"leadcore/models"
)

// AttributionModel selects a credit-allocation rule.
type AttributionModel string

const (
	FirstTouch AttributionModel = "FIRST_TOUCH"
	LastTouch  AttributionModel = "LAST_TOUCH"
	Linear     AttributionModel = "LINEAR"
	UShaped    AttributionModel = "U_SHAPED"
)

// ParseAttributionModel accepts a model name case-insensitively.
func ParseAttributionModel(s string) (AttributionModel, error) {
	switch AttributionModel(strings.ToUpper(strings.TrimSpace(s))) {
	case FirstTouch:
		return FirstTouch, nil
	case LastTouch:
		return LastTouch, nil
	case Linear:
		return Linear, nil
	case UShaped:
		return UShaped, nil
	}
	return "", fmt.Errorf("unknown attribution model %q", s)
}

// Attribute distributes conversion credit across a lead's touchpoints,
// which must arrive ordered ascending by timestamp. The returned map
// keys are touchpoint sources; fractions sum to 1.0 whenever there is
// at least one touchpoint. Pure function of the ordered sequence.
func Attribute(touchpoints []models.Touchpoint, model AttributionModel) map[string]float64 {
	credit := make(map[string]float64)
	n := len(touchpoints)
	if n == 0 {
		return credit
	}
	if n == 1 {
		credit[touchpoints[0].Source] = 1.0
		return credit
	}

	switch model {
	case FirstTouch:
		credit[touchpoints[0].Source] = 1.0
	case LastTouch:
		credit[touchpoints[n-1].Source] = 1.0
	case Linear:
		share := 1.0 / float64(n)
		for _, tp := range touchpoints {
			credit[tp.Source] += share
		}
	case UShaped:
		if n == 2 {
			credit[touchpoints[0].Source] += 0.5
			credit[touchpoints[1].Source] += 0.5
			break
		}
		credit[touchpoints[0].Source] += 0.4
		credit[touchpoints[n-1].Source] += 0.4
		middle := 0.2 / float64(n-2)
		for _, tp := range touchpoints[1 : n-1] {
			credit[tp.Source] += middle
		}
	}
	return credit
}
