package models

type ChipSignalKind string

const (
	ChipVeto    ChipSignalKind = "VETO"
	ChipWarning ChipSignalKind = "WARNING"
	ChipConfirm ChipSignalKind = "CONFIRM"
	ChipNeutral ChipSignalKind = "NEUTRAL"
)

// ChipDecision is the decision-level reading of a chip distribution.
type ChipDecision struct {
	Signal    ChipSignalKind `json:"signal"`
	RiskScore float64        `json:"risk_score"`
	Reason    string         `json:"reason"`
	Premium   float64        `json:"premium"` // % of price above average cost
}
