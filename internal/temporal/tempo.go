package temporal

import "github.com/dunebase/casugen/internal/models"

// tempoWeight returns the unscaled tempo-curve weight for hour index h out
// of totalHours, following one of five named shapes.
func tempoWeight(tempo models.Tempo, h, totalHours int) float64 {
	frac := 0.0
	if totalHours > 1 {
		frac = float64(h) / float64(totalHours-1)
	}
	switch tempo {
	case models.TempoEscalating:
		return 0.4 + (1.8-0.4)*frac
	case models.TempoSurge:
		return surgeCurve(frac)
	case models.TempoDeclining:
		return 1.8 - (1.8-0.4)*frac
	case models.TempoIntermittent:
		return intermittentCurve(h)
	default: // sustained
		return 1.0
	}
}

// surgeCurve rises from 0.5 to a 2.0 peak at the midpoint and back to 0.5,
// a symmetric triangular profile.
func surgeCurve(frac float64) float64 {
	if frac <= 0.5 {
		return 0.5 + (2.0-0.5)*(frac/0.5)
	}
	return 2.0 - (2.0-0.5)*((frac-0.5)/0.5)
}

// intermittentCurve alternates between a quiet floor and an active peak on
// an 8-hour cadence: 4 hours active, 4 hours quiet.
func intermittentCurve(h int) float64 {
	if (h/4)%2 == 0 {
		return 1.6
	}
	return 0.3
}
