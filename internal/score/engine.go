package score

import (
	"strconv"
	"strings"

	"github.com/wellora/wellora-backend/internal/types"
)

// Sub-score weights. They sum to 1; the weighted sum scaled by 100 is the
// base score before the demographic multiplier.
const (
	weightPhysical  = 0.35
	weightSleep     = 0.25
	weightEmotional = 0.30
	weightDigital   = 0.10
)

// Engine computes the daily wellbeing score. Pure and total: any observation
// and any (possibly nil) profile produce a value in [0,100].
type Engine struct {
	tables Tables
}

func NewEngine(tables Tables) *Engine {
	return &Engine{tables: tables}
}

func (e *Engine) ComputeScore(obs *types.DailyObservation, profile *types.UserProfile) float64 {
	if obs == nil {
		return 0
	}
	base := 100 * (weightPhysical*e.physicalScore(obs) +
		weightSleep*e.sleepScore(obs) +
		weightEmotional*e.emotionalScore(obs) +
		weightDigital*e.digitalScore(obs))
	final := base + base*e.demographicMultiplier(profile)
	return clamp(final, 0, 100)
}

func (e *Engine) physicalScore(obs *types.DailyObservation) float64 {
	var steps float64
	switch {
	case obs.Steps >= 10000:
		steps = 1.0
	case obs.Steps >= 5000:
		steps = 0.7
	default:
		steps = 0.3
	}
	home := 0.3
	if obs.LeftHome {
		home = 1.0
	}
	return steps*0.60 + home*0.40
}

func (e *Engine) sleepScore(obs *types.DailyObservation) float64 {
	var duration float64
	switch {
	case obs.SleepHours >= 7 && obs.SleepHours <= 9:
		duration = 1.0
	case (obs.SleepHours >= 5 && obs.SleepHours < 7) || (obs.SleepHours > 9 && obs.SleepHours <= 10):
		duration = 0.6
	default:
		duration = 0.2
	}

	var quality float64
	switch strings.ToLower(strings.TrimSpace(obs.SleepQuality)) {
	case "good":
		quality = 1.0
	case "medium":
		quality = 0.6
	default:
		quality = 0.2
	}

	window := sleepWindowTier(obs.SleepStart, obs.SleepEnd)
	return duration*0.50 + quality*0.30 + window*0.20
}

// sleepWindowTier compares sleep start/end against the ideal 22-23 -> 5-6
// window. Only the hour component is considered; minutes are ignored.
func sleepWindowTier(start, end string) float64 {
	sh, okStart := clockHour(start)
	eh, okEnd := clockHour(end)
	if !okStart || !okEnd {
		return 0.2
	}
	if (sh == 22 || sh == 23) && (eh == 5 || eh == 6) {
		return 1.0
	}
	startNear := sh >= 21 && sh <= 23 || sh == 0
	endNear := eh >= 4 && eh <= 7
	if startNear && endNear {
		return 0.6
	}
	return 0.2
}

func clockHour(hhmm string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

func (e *Engine) emotionalScore(obs *types.DailyObservation) float64 {
	var mood float64
	switch {
	case obs.Mood >= 8 && obs.Mood <= 10:
		mood = 1.0
	case obs.Mood >= 5 && obs.Mood <= 7:
		mood = 0.6
	default:
		mood = 0.2
	}

	var questionnaire float64
	switch {
	case obs.QuestionnaireScore >= 0 && obs.QuestionnaireScore <= 4:
		questionnaire = 1.0
	case obs.QuestionnaireScore >= 5 && obs.QuestionnaireScore <= 9:
		questionnaire = 0.5
	default:
		questionnaire = 0.1
	}
	return mood*0.40 + questionnaire*0.60
}

func (e *Engine) digitalScore(obs *types.DailyObservation) float64 {
	var screen float64
	switch {
	case obs.ScreenHours < 2:
		screen = 1.0
	case obs.ScreenHours < 4:
		screen = 0.6
	default:
		screen = 0.2
	}
	return screen*0.60 + e.appMixTier(obs.AppScreenTimeMap())*0.40
}

// appMixTier weighs time spent in the productive app set against the
// addictive set. A tie resolves to the medium tier.
func (e *Engine) appMixTier(apps map[string]float64) float64 {
	var productive, addictive float64
	for name, hours := range apps {
		lower := strings.ToLower(strings.TrimSpace(name))
		if containsName(e.tables.ProductiveApps, lower) {
			productive += hours
		}
		if containsName(e.tables.AddictiveApps, lower) {
			addictive += hours
		}
	}
	switch {
	case productive > addictive:
		return 1.0
	case productive == addictive:
		return 0.6
	default:
		return 0.2
	}
}

func containsName(set []string, name string) bool {
	for _, s := range set {
		if strings.ToLower(s) == name {
			return true
		}
	}
	return false
}

// demographicMultiplier sums independent bucket lookups. Each bucket defaults
// to zero for unknown or missing values.
func (e *Engine) demographicMultiplier(profile *types.UserProfile) float64 {
	if profile == nil {
		return 0
	}
	var m float64
	if profile.Gender != nil {
		m += e.tables.Gender[strings.ToLower(strings.TrimSpace(*profile.Gender))]
	}
	if profile.Age != nil {
		switch {
		case *profile.Age >= 18 && *profile.Age <= 25:
			m += 0.2
		case *profile.Age > 40:
			m += 0.3
		}
	}
	if profile.MaritalStatus != nil {
		m += e.tables.Marital[strings.ToLower(strings.TrimSpace(*profile.MaritalStatus))]
	}
	if profile.Profession != nil {
		m += e.tables.Profession[strings.ToLower(strings.TrimSpace(*profile.Profession))]
	}
	if profile.Country != nil {
		m += e.tables.Country[strings.ToLower(strings.TrimSpace(*profile.Country))]
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
