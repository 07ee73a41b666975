package core

// RiskLevel orders customers by collection risk for list badges. The
// ordering NoDebt < Reliable < MediumRisk < HighRisk is only meaningful
// while the customer owes something.
type RiskLevel int

const (
	RiskNoDebt RiskLevel = iota
	RiskReliable
	RiskMediumRisk
	RiskHighRisk
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNoDebt:
		return "NO_DEBT"
	case RiskReliable:
		return "RELIABLE"
	case RiskMediumRisk:
		return "MEDIUM_RISK"
	case RiskHighRisk:
		return "HIGH_RISK"
	}
	return "UNKNOWN"
}

// Label returns the Spanish badge text shown next to a customer.
func (r RiskLevel) Label() string {
	switch r {
	case RiskReliable:
		return "Confiable"
	case RiskMediumRisk:
		return "Riesgo Medio"
	case RiskHighRisk:
		return "Alto Riesgo"
	}
	return "Sin Deuda"
}

// ClassifyRisk maps an aging result to a tier. First match wins:
// no positive balance, no overdue portion, overdue below half the total,
// overdue at or above half the total. The half-total boundary is
// inclusive: overdue == total/2 already classifies as high risk.
func ClassifyRisk(a Aging) RiskLevel {
	switch {
	case a.Total.Cents <= 0:
		return RiskNoDebt
	case a.Overdue.Cents == 0:
		return RiskReliable
	case a.Overdue.Cents*2 < a.Total.Cents:
		return RiskMediumRisk
	default:
		return RiskHighRisk
	}
}
