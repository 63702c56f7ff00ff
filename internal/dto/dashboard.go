package dto

// DashboardSummary aggregates a reader's workload and standing.
type DashboardSummary struct {
	Pin                  string  `json:"pin"`
	OpenAssignments      int     `json:"open_assignments"`
	AssignmentsCompleted int     `json:"assignments_completed"`
	PendingCorrections   int     `json:"pending_corrections"`
	AvgTurnaroundHours   float64 `json:"avg_turnaround_hours"`
	TotalEarnings        float64 `json:"total_earnings"`
	UnpaidAmount         float64 `json:"unpaid_amount"`
	NdaSigned            bool    `json:"nda_signed"`
	Compliance           string  `json:"compliance"`
}
